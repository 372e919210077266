package main

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/directory"
	"github.com/spf13/viper"
)

// identityFile is the on-disk directory format:
//
//	identities:
//	  - subject: alice
//	    roles:
//	      - name: user
//	        abilities: [read]
//	    bans:
//	      - role: user
//	        reason: spam
//	        until_at: 2030-01-01T00:00:00Z
type identityFile struct {
	Identities []identityEntry `mapstructure:"identities"`
}

type identityEntry struct {
	Subject string      `mapstructure:"subject"`
	Roles   []roleEntry `mapstructure:"roles"`
	Bans    []banEntry  `mapstructure:"bans"`
}

type roleEntry struct {
	Name      string   `mapstructure:"name"`
	Abilities []string `mapstructure:"abilities"`
}

type banEntry struct {
	Role    string     `mapstructure:"role"`
	Ability string     `mapstructure:"ability"`
	Reason  string     `mapstructure:"reason"`
	UntilAt *time.Time `mapstructure:"until_at"`
}

func loadDirectoryFile(path string) (seedauth.UserDirectory, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}

	var file identityFile
	err := v.Unmarshal(&file, viper.DecodeHook(mapstructure.StringToTimeHookFunc(time.RFC3339)))
	if err != nil {
		return nil, fmt.Errorf("decode directory %s: %w", path, err)
	}

	dir := directory.NewMemory()
	for _, entry := range file.Identities {
		id := seedauth.Identity{Subject: entry.Subject}
		for _, r := range entry.Roles {
			id.Roles = append(id.Roles, seedauth.Role{Name: r.Name, Abilities: r.Abilities})
		}
		for _, b := range entry.Bans {
			id.Bans = append(id.Bans, seedauth.Ban{Role: b.Role, Ability: b.Ability, Reason: b.Reason, UntilAt: b.UntilAt})
		}
		if err := dir.Put(id); err != nil {
			return nil, fmt.Errorf("identity %q: %w", entry.Subject, err)
		}
	}
	return dir, nil
}
