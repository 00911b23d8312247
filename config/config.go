// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config parses the ceph.conf-style option file a client reads
// its identity and monitor list from (spec §6 "Configuration interface
// (consumed)"). No INI library appears anywhere in the retrieved
// corpus, so this is a small hand-rolled line parser rather than an
// adaptation of a teacher/example file; see DESIGN.md for that call.
package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/clustermap"
)

// Config is the subset of ceph.conf this client recognizes (spec §6):
// which monitors to hunt, where the keyring lives, who we authenticate
// as, the dispatch throttle, and the auth_* requirement strings.
type Config struct {
	MonHost                 []clustermap.Addr
	Keyring                 string
	ClientName              cephx.EntityName
	MsDispatchThrottleBytes int64
	AuthRequire             map[string]string
}

// DefaultConfig mirrors Ceph's own defaults for the handful of options
// this client reads.
func DefaultConfig() Config {
	return Config{
		ClientName:              cephx.EntityName{Type: "client", ID: "admin"},
		MsDispatchThrottleBytes: 100 << 20,
		AuthRequire:             make(map[string]string),
	}
}

// LoadFile reads and parses path, overlaying its values onto
// DefaultConfig. name selects which section's keys take precedence
// over [global] ("client.admin" also matches a bare [client] section).
func LoadFile(path string, name cephx.EntityName) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: opening %s", path)
	}
	defer f.Close()
	return Parse(f, name)
}

// Parse reads a ceph.conf-style file from r, returning a Config with
// DefaultConfig's values overridden, in order, by whatever [global],
// [client], and the section matching name define (spec §6's recognized
// options).
func Parse(r io.Reader, name cephx.EntityName) (Config, error) {
	sections, err := parseSections(r)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.ClientName = name

	applySection := func(section string) error {
		kv, ok := sections[section]
		if !ok {
			return nil
		}
		return applyOptions(&cfg, kv)
	}

	if err := applySection("global"); err != nil {
		return Config{}, err
	}
	if err := applySection("client"); err != nil {
		return Config{}, err
	}
	if err := applySection(name.String()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyOptions(cfg *Config, kv map[string]string) error {
	for key, value := range kv {
		switch {
		case key == "mon_host":
			addrs, err := parseMonHost(value)
			if err != nil {
				return err
			}
			cfg.MonHost = addrs
		case key == "keyring":
			cfg.Keyring = value
		case key == "ms_dispatch_throttle_bytes":
			n, err := ParseByteSize(value)
			if err != nil {
				return errors.Wrapf(err, "config: ms_dispatch_throttle_bytes=%q", value)
			}
			cfg.MsDispatchThrottleBytes = n
		case strings.HasPrefix(key, "auth_"):
			cfg.AuthRequire[key] = value
		}
	}
	return nil
}

// parseMonHost splits mon_host's comma-separated "v2:host:port" list
// (spec §6 "mon_host: comma-separated endpoints").
func parseMonHost(value string) ([]clustermap.Addr, error) {
	var addrs []clustermap.Addr
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		addr, err := clustermap.ParseAddr(tok)
		if err != nil {
			return nil, errors.Wrapf(err, "config: mon_host entry %q", tok)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// ParseByteSize parses a ceph.conf-style byte count: a plain integer,
// or one suffixed with K/M/G (case-insensitive, binary multiples),
// per spec §6 "ms_dispatch_throttle_bytes: integer with K/M/G
// suffixes".
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("config: empty byte size")
	}

	mult := int64(1)
	last := s[len(s)-1]
	switch last {
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	}
	s = strings.TrimSpace(s)

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "config: invalid byte size %q", s)
	}
	return n * mult, nil
}

// parseSections splits an INI-like file into section name -> (key ->
// value), lower-casing section and key names the way ceph.conf treats
// them case-insensitively. Comments start with '#' or ';'; blank lines
// are ignored.
func parseSections(r io.Reader) (map[string]map[string]string, error) {
	sections := make(map[string]map[string]string)
	current := "global"
	sections[current] = make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			end := strings.Index(line, "]")
			if end < 0 {
				return nil, errors.Newf("config: line %d: unterminated section header %q", lineNo, line)
			}
			current = normalizeSectionName(line[1:end])
			if _, ok := sections[current]; !ok {
				sections[current] = make(map[string]string)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Newf("config: line %d: expected 'key = value', got %q", lineNo, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.Trim(strings.TrimSpace(value), `"`)
		sections[current][key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "config: reading")
	}
	return sections, nil
}

func normalizeSectionName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
