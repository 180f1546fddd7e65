package pattern

// Rule maps a log filename regex onto catalog metadata. TagGroup and NameGroup
// are 1-based capture group indices; 0 selects the whole match.
type Rule struct {
	Pattern     string `json:"pattern" toml:"pattern" yaml:"pattern"`
	Regex       string `json:"regex" toml:"regex" yaml:"regex"`
	TagGroup    int    `json:"tagGroup" toml:"tagGroup" yaml:"tagGroup"`
	NameGroup   int    `json:"nameGroup" toml:"nameGroup" yaml:"nameGroup"`
	Description string `json:"description,omitempty" toml:"description,omitempty" yaml:"description,omitempty"`
}

// DefaultRule matches name.number.tag.log filenames such as
// service.42.requests.log.
func DefaultRule() Rule {
	return Rule{
		Pattern:     "*.*.*.log",
		Regex:       `^(.+?)\.(\d+)\.(.+?)\.log$`,
		TagGroup:    3,
		NameGroup:   1,
		Description: "name.number.tag.log",
	}
}
