package config

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var windowsEnvRef = regexp.MustCompile(`%([^%]+)%`)

// expandPath expands a leading ~ and environment variables in p.
// $VAR and ${VAR} work everywhere; %VAR% and ~\ are also accepted on Windows.
func expandPath(p string) string {
	if p == "" {
		return p
	}

	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = windowsEnvRef.ReplaceAllStringFunc(p, func(ref string) string {
			if val, ok := os.LookupEnv(ref[1 : len(ref)-1]); ok {
				return val
			}
			return ref
		})
	}

	if p != "~" && !strings.HasPrefix(p, "~/") && !(runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
