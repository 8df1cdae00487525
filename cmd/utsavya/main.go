package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"utsavya/internal/apiserver"
	"utsavya/internal/client"
	"utsavya/internal/draft"
	"utsavya/internal/guard"
	"utsavya/internal/logging"
	"utsavya/internal/media"
	"utsavya/internal/panel"
	"utsavya/internal/resource"
	"utsavya/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "utsavya",
	Short: "Utsavya admin CLI",
	Long: `Utsavya manages the event platform's content from the terminal.
Every resource (events, artists, products, news, ...) gets the same verbs:
list, get, create, update, delete, preview. Sign in first with 'utsavya login';
mutating verbs refuse to run without a stored session.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("UTSAVYA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("api", "http://127.0.0.1:8080", "API base URL")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(resourcesCmd())
	rootCmd.AddCommand(serveCmd())
	for _, schema := range resource.Default().Resources {
		rootCmd.AddCommand(resourceCmd(schema))
	}
}

func loginCmd() *cobra.Command {
	var username, password, role string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]string{
				"username": username,
				"password": password,
				"role":     role,
			})
			if err != nil {
				return err
			}
			resp, err := http.Post(viper.GetString("api")+"/auth/login", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("login failed: status %d", resp.StatusCode)
			}
			var out struct {
				Token string `json:"token"`
				Role  string `json:"role"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			workspace := viper.GetString("workspace")
			if err := guard.Save(workspace, guard.Credentials{Token: out.Token, Role: out.Role}); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s), session stored in %s\n",
				username, out.Role, filepath.Join(workspace, ".env"))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user name")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", "admin", "requested role")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return guard.Clear(viper.GetString("workspace"))
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := guard.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if secret := viper.GetString("jwt-secret"); secret != "" {
				sub, role, err := guard.Verify(creds.Token, secret)
				if err != nil {
					return err
				}
				fmt.Printf("%s (%s)\n", sub, role)
				return nil
			}
			fmt.Printf("role: %s\n", creds.Role)
			return nil
		},
	}
}

func resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the managed resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := resource.Default()
			if viper.GetBool("json") {
				return printJSON(catalog.Resources)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Name", "Title", "Path", "Fields"})
			for _, s := range catalog.Resources {
				tw.AppendRow(table.Row{s.Name, s.Title, s.Path, len(s.Fields)})
			}
			tw.Render()
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the backend API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			log := logging.New(viper.GetString("log-level"))
			secret := viper.GetString("jwt-secret")
			if secret == "" {
				return fmt.Errorf("UTSAVYA_JWT_SECRET is required for bearer auth")
			}
			records, err := apiserver.OpenRecords(workspace)
			if err != nil {
				return err
			}
			defer records.Close()
			mediaDir, err := apiserver.NewMediaDir(workspace)
			if err != nil {
				return err
			}
			handler, err := apiserver.New(apiserver.Config{
				Catalog:   resource.Default(),
				Records:   records,
				Media:     mediaDir,
				JWTSecret: secret,
				Log:       log,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Utsavya API on http://%s (OpenAPI at /openapi.json)\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}

// resourceCmd builds the verb set for one catalog resource.
func resourceCmd(schema resource.Schema) *cobra.Command {
	cmd := &cobra.Command{
		Use:   schema.Name,
		Short: "Manage " + schema.Title,
	}
	cmd.AddCommand(listCmd(schema))
	cmd.AddCommand(getCmd(schema))
	cmd.AddCommand(createCmd(schema))
	cmd.AddCommand(updateCmd(schema))
	cmd.AddCommand(deleteCmd(schema))
	cmd.AddCommand(previewCmd(schema))
	return cmd
}

// session loads the stored credentials and checks the role allow-list. The
// token itself is judged by the server; the local check fails fast on the
// obvious cases.
func session() (guard.Credentials, error) {
	creds, err := guard.Load(viper.GetString("workspace"))
	if err != nil {
		return guard.Credentials{}, err
	}
	if creds.Role != "" && !guard.Allowed(creds.Role) {
		return guard.Credentials{}, fmt.Errorf("%w: %q", guard.ErrRoleDenied, creds.Role)
	}
	return creds, nil
}

func newStore(schema resource.Schema) (*store.Store, error) {
	creds, err := session()
	if err != nil {
		return nil, err
	}
	coll := client.New(viper.GetString("api"), schema.Path)
	coll.Token = creds.Token
	log := logging.New(viper.GetString("log-level"))
	return store.New(coll, log), nil
}

func listCmd(schema resource.Schema) *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + schema.Title,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore(schema)
			if err != nil {
				return err
			}
			items, err := st.RequestList(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			pager := panel.Pager{PageSize: pageSize, Current: page}
			panel.RenderList(os.Stdout, schema, st, pager)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", panel.DefaultPageSize, "items per page")
	return cmd
}

func getCmd(schema resource.Schema) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get one of " + schema.Title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := session()
			if err != nil {
				return err
			}
			coll := client.New(viper.GetString("api"), schema.Path)
			coll.Token = creds.Token
			it, err := coll.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(it)
		},
	}
}

func createCmd(schema resource.Schema) *cobra.Command {
	var sets, attaches []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create " + schema.Title,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore(schema)
			if err != nil {
				return err
			}
			d := draft.New(schema)
			if err := applyEdits(d, sets, attaches); err != nil {
				return err
			}
			it, err := d.Submit(cmd.Context(), st)
			if err != nil && !isRefetch(err) {
				return err
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning:", err)
			}
			return printJSON(it)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value (value may be JSON)")
	cmd.Flags().StringArrayVar(&attaches, "attach", nil, "mediaField=path to upload")
	return cmd
}

// isRefetch reports a submit whose mutation committed but whose reconciling
// list fetch failed; the record exists and must not be resubmitted.
func isRefetch(err error) bool {
	var re *draft.RefetchError
	return errors.As(err, &re)
}

func updateCmd(schema resource.Schema) *cobra.Command {
	var sets, attaches []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update " + schema.Title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := session()
			if err != nil {
				return err
			}
			coll := client.New(viper.GetString("api"), schema.Path)
			coll.Token = creds.Token
			st := store.New(coll, logging.New(viper.GetString("log-level")))
			it, err := coll.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d, err := draft.FromItem(schema, it)
			if err != nil {
				return err
			}
			if err := applyEdits(d, sets, attaches); err != nil {
				return err
			}
			updated, err := d.Submit(cmd.Context(), st)
			if err != nil && !isRefetch(err) {
				return err
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning:", err)
			}
			return printJSON(updated)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value (value may be JSON)")
	cmd.Flags().StringArrayVar(&attaches, "attach", nil, "mediaField=path to upload")
	return cmd
}

func deleteCmd(schema resource.Schema) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete " + schema.Title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore(schema)
			if err != nil {
				return err
			}
			id := args[0]
			if !yes {
				fmt.Printf("Delete %s %s? This cannot be undone. [y/N]: ", schema.Name, id)
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				if answer != "y" && answer != "yes" {
					fmt.Println("aborted")
					return nil
				}
			}
			if err := st.RequestDelete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("deleted %s %s\n", schema.Name, id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func previewCmd(schema resource.Schema) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <id>",
		Short: "Preview one of " + schema.Title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := session()
			if err != nil {
				return err
			}
			coll := client.New(viper.GetString("api"), schema.Path)
			coll.Token = creds.Token
			it, err := coll.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := panel.Preview{Schema: schema, Item: it}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Field", "Value"})
			tw.AppendRow(table.Row{"id", it.ID})
			for _, f := range schema.Fields {
				v, err := p.RenderField(f.Name)
				if err != nil {
					return err
				}
				tw.AppendRow(table.Row{f.Name, v})
			}
			tw.Render()
			return nil
		},
	}
}

// applyEdits folds --set and --attach flags into a draft. Set values parse
// as JSON when they can, so lists and nested rows come straight from the
// shell.
func applyEdits(d *draft.Draft, sets, attaches []string) error {
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, want field=value", kv)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		d.Set(key, parsed)
	}
	for _, kv := range attaches {
		key, path, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --attach %q, want field=path", kv)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := d.Attach(key, media.Pending{Name: filepath.Base(path), Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
