// Package config loads the logmon server configuration.
//
// # Overview
//
// The configuration names the directories to scan for log files, the ordered
// pattern rules that classify them, and a handful of serving limits. It is
// loaded once at startup and never reloaded: a rescan reuses the same Config.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ./config.json
//  3. If the file is missing or unparseable, fall back to built-in defaults
//  4. If the file parses but fields are missing/empty, use defaults per field
//
// Load never leaves the caller without a configuration. On failure it returns
// the defaults together with the error so the caller can log a warning and
// keep going.
//
// # Formats
//
// The format is chosen by file extension:
//
//   - .json (default for any other extension)
//   - .toml
//   - .yaml / .yml (unknown keys are rejected)
//
// Example config.json:
//
//	{
//	  "scanPaths": [".", "../logs"],
//	  "logPatterns": [
//	    {
//	      "pattern": "*.*.*.log",
//	      "regex": "^(.+?)\\.(\\d+)\\.(.+?)\\.log$",
//	      "tagGroup": 3,
//	      "nameGroup": 1,
//	      "description": "name.number.tag.log"
//	    }
//	  ],
//	  "port": 8080,
//	  "maxFileReadSize": 524288,
//	  "updateInterval": 2000,
//	  "maxEntriesPerTag": 1000
//	}
//
// # Default Values
//
//   - Config file: ./config.json
//   - Scan paths: ["."]
//   - Pattern: ^(.+?)\.(\d+)\.(.+?)\.log$ (tag = group 3, name = group 1)
//   - Port: 8080
//   - Max file read size: 512 KiB
//   - Update interval: 2000 ms
//   - Max entries per tag: 1000
//
// # Base Directory
//
// BaseDir is the directory containing the config file, even when the file
// could not be read. Relative scan paths, web paths and static files are all
// resolved against it. Callers may override it before handing the Config to
// the catalog service.
package config
