package main

import "gopkg.in/ini.v1"

// demoConfig is the small set of connection parameters this example
// CLI needs. Core packages never parse config files themselves (see
// SPEC_FULL.md's AMBIENT STACK note); this loader is local to the
// example and not exported.
type demoConfig struct {
	Address    string
	LocalAddr  uint16
	RemoteAddr uint16
	Master     bool
}

func loadConfig(path string) (demoConfig, error) {
	cfg := demoConfig{Address: "127.0.0.1:20000", LocalAddr: 2, RemoteAddr: 1, Master: true}
	if path == "" {
		return cfg, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return cfg, err
	}
	sec := f.Section("dnp3")
	cfg.Address = sec.Key("address").MustString(cfg.Address)
	cfg.LocalAddr = uint16(sec.Key("local_addr").MustUint(uint(cfg.LocalAddr)))
	cfg.RemoteAddr = uint16(sec.Key("remote_addr").MustUint(uint(cfg.RemoteAddr)))
	cfg.Master = sec.Key("master").MustBool(cfg.Master)
	return cfg, nil
}
