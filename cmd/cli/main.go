package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/infrastructure/postgres"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

var bcryptGenerate = bcrypt.GenerateFromPassword

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dochub-cli",
		Short:         "DocHub CLI tool",
		Long:          `A command line interface for interacting with the DocHub API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the DocHub API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("DOCHUB_TOKEN"), "Bearer token (defaults to $DOCHUB_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		loginCmd(),
		refreshCmd(),
		rolesCmd(),
		documentsCmd(),
		auditCmd(),
		migrateCmd(),
		hashPasswordCmd(),
	)
	return rootCmd
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.TokenResponse
			if err := newClient().do(http.MethodPost, "/auth/login", dto.LoginRequest{Username: username, Password: password}, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.TokenResponse
			if err := newClient().do(http.MethodPost, "/auth/token/refresh", nil, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Token)
			return nil
		},
	}
}

func rolesCmd() *cobra.Command {
	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "Role operations",
	}

	rolesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List roles",
			RunE: func(cmd *cobra.Command, args []string) error {
				var roles []dto.RoleResponse
				if err := newClient().do(http.MethodGet, "/rbac/roles", nil, &roles); err != nil {
					return err
				}
				for _, role := range roles {
					fmt.Printf("%-26s %-24s super=%t rules=%d\n", role.ID, truncate(role.RoleName, 24), role.IsSuper, len(role.ScopeRules))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a role",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var role dto.RoleResponse
				if err := newClient().do(http.MethodGet, "/rbac/roles/"+url.PathEscape(args[0]), nil, &role); err != nil {
					return err
				}
				printJSON(role)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a role",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var resp dto.DeleteResponse
				if err := newClient().do(http.MethodDelete, "/rbac/roles/"+url.PathEscape(args[0]), nil, &resp); err != nil {
					return err
				}
				fmt.Printf("Deleted: %d\n", resp.Deleted)
				return nil
			},
		},
	)
	return rolesCmd
}

func documentsCmd() *cobra.Command {
	docsCmd := &cobra.Command{
		Use:   "documents",
		Short: "Document operations",
	}

	var page, size int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("page", strconv.Itoa(page))
			q.Set("size", strconv.Itoa(size))
			var resp map[string]any
			if err := newClient().do(http.MethodGet, "/v1/document?"+q.Encode(), nil, &resp); err != nil {
				return err
			}
			printJSON(resp)
			return nil
		},
	}
	listCmd.Flags().IntVar(&page, "page", 0, "Page number")
	listCmd.Flags().IntVar(&size, "size", 20, "Page size")

	var out string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Download an archive of every document",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := newClient().download("/v1/document/backup", f)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d bytes to %s\n", n, out)
			return nil
		},
	}
	backupCmd.Flags().StringVar(&out, "out", "backup.zip", "Output file")

	docsCmd.AddCommand(listCmd, backupCmd)
	return docsCmd
}

func auditCmd() *cobra.Command {
	var actorID, operation string
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if actorID != "" {
				q.Set("actor_id", actorID)
			}
			if operation != "" {
				q.Set("operation", operation)
			}
			q.Set("limit", strconv.Itoa(limit))

			var logs []dto.AuditLogResponse
			if err := newClient().do(http.MethodGet, "/rbac/audit?"+q.Encode(), nil, &logs); err != nil {
				return err
			}
			for _, l := range logs {
				fmt.Printf("%s %-20s %-26s %s\n", l.CreatedAt.Format(time.RFC3339), l.Operation, l.ActorID, truncate(l.Log, 60))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "Filter by actor id")
	cmd.Flags().StringVar(&operation, "operation", "", "Filter by operation")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries")
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string
	cmd := &cobra.Command{
		Use:       "migrate <up|down|version>",
		Short:     "Manage database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m := postgres.NewMigrator(databaseURL, path, zerolog.New(os.Stderr))
			switch args[0] {
			case "up":
				return m.Up()
			case "down":
				return m.Down()
			default:
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("Version: %d (dirty=%t)\n", version, dirty)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL (defaults to $DATABASE_URL)")
	cmd.Flags().StringVar(&path, "path", "migrations", "Migrations directory")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for seeding actors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

type apiClient struct {
	http    *http.Client
	baseURL string
	token   string
}

func newClient() *apiClient {
	return &apiClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
	}
}

func (c *apiClient) request(method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp, nil
}

func (c *apiClient) do(method, path string, body, out any) error {
	resp, err := c.request(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *apiClient) download(path string, w io.Writer) (int64, error) {
	resp, err := c.request(http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Errorf("request failed (status %d): %s: %s", resp.StatusCode, e.Error, e.Message)
	}
	if len(body) == 0 {
		return errors.New(http.StatusText(resp.StatusCode))
	}
	return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to format output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
