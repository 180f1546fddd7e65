// Package app wires configuration, discovery, the HTTP server and the viewer
// into the logmon commands.
//
// # Serve
//
//	Serve()
//	  ├─> LoadConfig()        config file plus --base-dir / --port overrides
//	  ├─> catalog.Service     first discovery pass, published before listening
//	  ├─> StartRescanner()    optional periodic discovery (--rescan)
//	  └─> http.Server         chi router from package server, graceful shutdown
//
// A missing or unparsable config file is logged and the defaults are used. An
// invalid configuration or a failed first discovery stops startup.
//
// # Watch
//
//	Watch()
//	  ├─> prefs.Load()        theme, server, last tag
//	  ├─> client.FetchConfig  reachability check and poll cadence
//	  ├─> StartPoller()       keeps state.Store current, rediscovers every 10s
//	  └─> ui.Run()            Bubble Tea viewer (blocks)
//
// The poller backs off exponentially while the server is unreachable, up to
// 30 seconds between attempts, and recovers on the first successful poll.
//
// # Scan
//
// Scan runs one discovery pass without starting a server.
package app
