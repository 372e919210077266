// Package gormdir is a relational seedauth.UserDirectory built on gorm. Users,
// roles, abilities, their assignments and bans live in separate tables; Lookup
// loads a subject with a single preloaded query.
package gormdir

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seedkit/seedauth/permission"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	// ErrUnknownRole is returned when assigning a role that was never created.
	ErrUnknownRole = errors.New("gormdir: unknown role")
	// ErrUserNotFound is returned by admin operations on unknown subjects.
	ErrUserNotFound = errors.New("gormdir: user not found")
	// ErrInvalidBan is returned for bans naming both or neither of a role and an ability.
	ErrInvalidBan = errors.New("gormdir: ban must name exactly one role or ability")
)

// Config selects the database. Dialect is "sqlite", "postgres" or "mysql".
type Config struct {
	Dialect    string `mapstructure:"dialect"`
	Datasource string `mapstructure:"datasource"`
}

// NewDialector returns the gorm dialector for cfg.
func NewDialector(cfg Config) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Dialect)) {
	case "", "sqlite", "sqlite3":
		return sqlite.Open(cfg.Datasource), nil
	case "postgres", "postgresql":
		return postgres.Open(cfg.Datasource), nil
	case "mysql":
		return mysql.Open(cfg.Datasource), nil
	default:
		return nil, fmt.Errorf("gormdir: unsupported dialect %q", cfg.Dialect)
	}
}

// Open connects to the database described by cfg with gorm logging silenced.
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := NewDialector(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Directory resolves identities from the gormdir tables.
type Directory struct {
	db *gorm.DB
}

// New returns a Directory over db. Call Migrate before the first Lookup on a fresh
// database.
func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// Migrate creates or updates the directory tables.
func (d *Directory) Migrate(ctx context.Context) error {
	return d.db.WithContext(ctx).AutoMigrate(models()...)
}

// Lookup loads subject with its roles, their abilities and its bans. Unknown
// subjects return (nil, nil). Identity.User carries the *User row.
func (d *Directory) Lookup(ctx context.Context, subject string) (*permission.Identity, error) {
	var u User
	err := d.db.WithContext(ctx).
		Preload("Roles.Role.Abilities").
		Preload("Bans").
		Where("subject = ?", subject).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gormdir: lookup %q: %w", subject, err)
	}
	return toIdentity(&u), nil
}

func toIdentity(u *User) *permission.Identity {
	id := &permission.Identity{
		Subject: u.Subject,
		User:    u,
		Roles:   make([]permission.Role, 0, len(u.Roles)),
		Bans:    make([]permission.Ban, 0, len(u.Bans)),
	}
	for _, ur := range u.Roles {
		role := permission.Role{Name: ur.RoleName}
		for _, ra := range ur.Role.Abilities {
			role.Abilities = append(role.Abilities, ra.AbilityName)
		}
		id.Roles = append(id.Roles, role)
	}
	for _, b := range u.Bans {
		id.Bans = append(id.Bans, permission.Ban{
			Role:    b.RoleName,
			Ability: b.AbilityName,
			Reason:  b.Reason,
			UntilAt: b.UntilAt,
		})
	}
	return id
}

/*
====================================
ADMINISTRATION
====================================
*/

// CreateRole creates role with the given abilities, creating missing abilities.
// Existing grants are kept.
func (d *Directory) CreateRole(ctx context.Context, name string, abilities ...string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Role{Name: name}).Error; err != nil {
			return err
		}
		for _, a := range abilities {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Ability{Name: a}).Error; err != nil {
				return err
			}
			grant := RoleAbility{RoleName: name, AbilityName: a}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateUser creates subject if missing and assigns roles to it.
func (d *Directory) CreateUser(ctx context.Context, subject string, roles ...string) (*User, error) {
	var u User
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(User{Subject: subject}).FirstOrCreate(&u).Error; err != nil {
			return err
		}
		for _, r := range roles {
			var n int64
			if err := tx.Model(&Role{}).Where("name = ?", r).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: %s", ErrUnknownRole, r)
			}
			link := UserRole{UserID: u.ID, RoleName: r}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Ban records a ban for subject.
func (d *Directory) Ban(ctx context.Context, subject string, ban permission.Ban) error {
	if !ban.Valid() {
		return ErrInvalidBan
	}
	u, err := d.user(ctx, subject)
	if err != nil {
		return err
	}
	return d.db.WithContext(ctx).Create(&UserBan{
		UserID:      u.ID,
		RoleName:    ban.Role,
		AbilityName: ban.Ability,
		Reason:      ban.Reason,
		UntilAt:     ban.UntilAt,
	}).Error
}

// Unban deletes every ban of subject on the given role or ability name.
func (d *Directory) Unban(ctx context.Context, subject, name string) error {
	u, err := d.user(ctx, subject)
	if err != nil {
		return err
	}
	return d.db.WithContext(ctx).
		Where("user_id = ? AND (role_name = ? OR ability_name = ?)", u.ID, name, name).
		Delete(&UserBan{}).Error
}

func (d *Directory) user(ctx context.Context, subject string) (*User, error) {
	var u User
	err := d.db.WithContext(ctx).Where("subject = ?", subject).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, subject)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
