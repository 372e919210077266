package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/credential"
	"github.com/seedkit/seedauth/internal/units"
	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/permission"
	"github.com/spf13/cobra"
)

// errDenied is returned by check for denied requests so the process exits non-zero.
var errDenied = errors.New("request denied")

func newRootCommand() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "seedauth",
		Short:         "Session token administration and load testing",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rt.bindFlags(root)

	root.AddCommand(
		newIssueCommand(rt),
		newInspectCommand(rt),
		newCheckCommand(rt),
		newLogoutCommand(rt),
		newSessionsCommand(rt),
		newLoadTestCommand(rt),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseTokenType(s string) (seedauth.TokenType, error) {
	t := seedauth.TokenType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown token type %q", s)
	}
	return t, nil
}

func newIssueCommand(rt *runtime) *cobra.Command {
	var (
		tokenType string
		payload   map[string]string
	)
	cmd := &cobra.Command{
		Use:   "issue <subject>",
		Short: "Issue tokens for a subject",
		Args:  cobra.ExactArgs(1),
		RunE: rt.run(func(cmd *cobra.Command, args []string) error {
			engine, err := rt.build(cmd.Context())
			if err != nil {
				return err
			}

			claims := make(map[string]any, len(payload))
			for k, v := range payload {
				claims[k] = v
			}

			var set seedauth.TokenSet
			if tokenType == "pair" {
				set, err = engine.IssuePair(cmd.Context(), args[0], claims)
			} else {
				var t seedauth.TokenType
				if t, err = parseTokenType(tokenType); err != nil {
					return err
				}
				var tok *seedauth.Token
				tok, err = engine.Issue(cmd.Context(), args[0], claims, t)
				if t == seedauth.TokenRefresh {
					set.Refresh = tok
				} else {
					set.Access = tok
				}
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), set.Body())
		}),
	}
	cmd.Flags().StringVarP(&tokenType, "type", "t", "pair", "token type: access, refresh or pair")
	cmd.Flags().StringToStringVarP(&payload, "payload", "p", nil, "payload entries as key=value")
	return cmd
}

type tokenView struct {
	ID        string         `json:"jti"`
	Subject   string         `json:"sub"`
	Type      string         `json:"type"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	ExpiresIn string         `json:"expires_in,omitempty"`
	Payload   map[string]any `json:"payload"`
	Active    *bool          `json:"active,omitempty"`
}

func viewOf(tok *seedauth.Token) tokenView {
	v := tokenView{
		ID:        tok.ID,
		Subject:   tok.Subject,
		Type:      string(tok.Type),
		IssuedAt:  tok.IssuedAt.UTC(),
		ExpiresAt: tok.ExpiresAt,
		Payload:   tok.Payload,
	}
	if tok.TTL > 0 {
		v.ExpiresIn = units.Format(tok.TTL)
	}
	return v
}

func newInspectCommand(rt *runtime) *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "inspect <credential>",
		Short: "Decode and verify a token",
		Long:  "Decode and verify a token. The session store is consulted only with --active.",
		Args:  cobra.ExactArgs(1),
		RunE: rt.run(func(cmd *cobra.Command, args []string) error {
			if !active {
				codec, err := jwt.NewManager(jwt.Config{
					Secret:        rt.cfg.JWT.Secret,
					SigningMethod: jwt.SigningMethod(rt.cfg.JWT.Algorithm),
					Issuer:        rt.cfg.JWT.Issuer,
					Leeway:        rt.cfg.JWT.Leeway,
				})
				if err != nil {
					return err
				}
				tok, err := codec.Decode(args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), viewOf(tok))
			}

			engine, err := rt.build(cmd.Context())
			if err != nil {
				return err
			}
			st, err := engine.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v := viewOf(st.Token)
			v.Active = &st.Active
			return writeJSON(cmd.OutOrStdout(), v)
		}),
	}
	cmd.Flags().BoolVar(&active, "active", false, "also report whether the token is the subject's active one")
	return cmd
}

type checkResult struct {
	Outcome string `json:"outcome"`
	Subject string `json:"subject,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	Message string `json:"message,omitempty"`
}

func newCheckCommand(rt *runtime) *cobra.Command {
	var (
		tokenType string
		optional  bool
		cookie    bool
		roles     string
		abilities string
	)
	cmd := &cobra.Command{
		Use:   "check <credential>",
		Short: "Authenticate a credential against a route policy",
		Args:  cobra.ExactArgs(1),
		RunE: rt.run(func(cmd *cobra.Command, args []string) error {
			t, err := parseTokenType(tokenType)
			if err != nil {
				return err
			}
			route := seedauth.Route{Required: !optional, TokenType: t}
			if route.Roles, err = permission.ParseRequirement(roles); err != nil {
				return fmt.Errorf("--roles: %w", err)
			}
			if route.Abilities, err = permission.ParseRequirement(abilities); err != nil {
				return fmt.Errorf("--abilities: %w", err)
			}

			engine, err := rt.build(cmd.Context())
			if err != nil {
				return err
			}

			req := credential.Request{Authorization: credential.BearerScheme + " " + args[0]}
			if cookie {
				req = credential.Request{Cookies: map[string]string{rt.cfg.Cookie.Key(t): args[0]}}
			}
			d, err := engine.Authenticate(cmd.Context(), req, route)
			if err != nil {
				return err
			}

			res := checkResult{Outcome: d.Outcome.String()}
			if d.Token != nil {
				res.Subject = d.Token.Subject
			}
			if d.Denial != nil {
				res.Symbol = string(d.Denial.Symbol())
				res.Message = d.Denial.Error()
			}
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if d.Outcome == seedauth.Denied {
				return errDenied
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&tokenType, "type", "t", string(seedauth.TokenAccess), "expected token type")
	cmd.Flags().BoolVar(&optional, "optional", false, "allow anonymous requests")
	cmd.Flags().BoolVar(&cookie, "cookie", false, "send the credential as a cookie instead of a header")
	cmd.Flags().StringVar(&roles, "roles", "", `required roles, e.g. "admin|owner, staff"`)
	cmd.Flags().StringVar(&abilities, "abilities", "", "required abilities")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	var types []string
	cmd := &cobra.Command{
		Use:   "logout <subject>",
		Short: "Revoke a subject's tokens",
		Args:  cobra.ExactArgs(1),
		RunE: rt.run(func(cmd *cobra.Command, args []string) error {
			tokenTypes := make([]seedauth.TokenType, 0, len(types))
			for _, s := range types {
				t, err := parseTokenType(s)
				if err != nil {
					return err
				}
				tokenTypes = append(tokenTypes, t)
			}

			engine, err := rt.build(cmd.Context())
			if err != nil {
				return err
			}
			if err := engine.Logout(cmd.Context(), args[0], tokenTypes...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return nil
		}),
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "token types to revoke; all when omitted")
	return cmd
}

func newSessionsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <subject>",
		Short: "Show a subject's active token ids",
		Args:  cobra.ExactArgs(1),
		RunE: rt.run(func(cmd *cobra.Command, args []string) error {
			engine, err := rt.build(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := engine.ActiveSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := map[string]any{
				"subject": args[0],
				"tokens":  rec.Tokens,
			}
			if rec.TTL > 0 {
				out["expires_in"] = units.Format(rec.TTL)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}),
	}
}
