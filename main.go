package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mylpd15/inventory-console/config"
	"github.com/mylpd15/inventory-console/controller"
	"github.com/mylpd15/inventory-console/fakeapi"
	"github.com/mylpd15/inventory-console/form"
	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
	"github.com/mylpd15/inventory-console/resources"
	"github.com/mylpd15/inventory-console/security"
	"github.com/mylpd15/inventory-console/session"
	"github.com/mylpd15/inventory-console/storage"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "invconsole",
		Usage: "Warehouse management console",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Usage: "directory holding console.yaml"},
		},
		Commands: []*cli.Command{
			demoCommand(),
			authCommand(),
			signupCommand(),
			otpCommand(),
			passwordCommand(),
			sectionsCommand(),
			uploadCommand(),
			resourceCommand("customers", resources.Customers),
			resourceCommand("products", resources.Products),
			resourceCommand("providers", resources.Providers),
			resourceCommand("warehouses", resources.Warehouses),
			resourceCommand("locations", resources.Locations),
			resourceCommand("inventory", resources.Inventory),
			resourceCommand("users", resources.Users),
			deliveriesCommand(),
			ordersCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

// env wires the session and backend client from the loaded configuration.
type env struct {
	cfg    config.Config
	sess   *session.Manager
	client *odata.Client
	store  session.Store
}

func buildEnv(cmd *cli.Command) (*env, error) {
	cfg, err := config.Load(cmd.String("config-dir"))
	if err != nil {
		return nil, err
	}

	var cipher *security.Cipher
	if cfg.EncryptionKey != "" {
		cipher, err = security.NewCipher(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("initializing session encryption: %w", err)
		}
	}
	if dir := filepath.Dir(cfg.SessionDB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	store, err := session.OpenSQLiteStore(cfg.SessionDB, cipher)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	e := &env{cfg: cfg, store: store}
	// The client reads the token through a manager over the same store, so
	// lazy expiry applies to every request.
	tokens := session.NewManager(nil, store)
	e.client = odata.NewClient(cfg.ServerURL, nil, tokens.TokenSource())
	e.sess = session.NewManager(e.client, store)
	return e, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// printNotifier surfaces controller notifications on stderr.
type printNotifier struct{}

func (printNotifier) Notify(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run the bundled in-process backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "db-path", Value: "./demo.db", Usage: "SQLite database path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			backend, err := fakeapi.New(c.String("db-path"))
			if err != nil {
				return err
			}
			defer backend.Close()

			srv := &http.Server{
				Handler:      backend.Router(),
				Addr:         c.String("addr"),
				WriteTimeout: 15 * time.Second,
				ReadTimeout:  15 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Starting demo backend on %s (admin user %q / %q)...", srv.Addr, fakeapi.SeedAdminUsername, fakeapi.SeedAdminPassword)
				errCh <- srv.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				log.Printf("Received signal %s, shutting down", sig)
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Session commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					user, err := e.sess.Login(ctx, models.UserCredential{
						Username: c.String("username"),
						Password: c.String("password"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("Logged in as %s (%s)\n", user.Username, user.UserRole)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show the current actor",
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					user := e.sess.Current()
					if user == nil {
						fmt.Println("Not logged in")
						return nil
					}
					return printJSON(user)
				},
			},
			{
				Name:  "logout",
				Usage: "Clear the stored session",
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					if err := e.sess.Logout(ctx); err != nil {
						return err
					}
					fmt.Println("Logged out")
					return nil
				},
			},
		},
	}
}

func signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Register a new account and log in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "name", Required: true, Usage: "display name"},
			&cli.IntFlag{Name: "role", Value: int(models.RoleSalesStaff), Usage: "numeric role (1=Admin .. 7=Auditor)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := buildEnv(c)
			if err != nil {
				return err
			}
			dto := models.CreateUser{
				Username:    c.String("username"),
				Password:    c.String("password"),
				Email:       c.String("email"),
				DisplayName: c.String("name"),
				UserRole:    models.UserRole(c.Int("role")),
			}
			var user *models.AppUser
			f := form.New(printNotifier{}, nil)
			ok := f.Submit(ctx, func(errs form.Errors) {
				form.Username(errs, "Username", dto.Username)
				form.Password(errs, "Password", dto.Password)
				form.Email(errs, "Email", dto.Email)
				form.Required(errs, "DisplayName", dto.DisplayName)
			}, func(ctx context.Context) error {
				var err error
				user, err = e.sess.Signup(ctx, dto)
				return err
			})
			if !ok {
				return fmt.Errorf("signup failed")
			}
			fmt.Printf("Registered and logged in as %s\n", user.Username)
			return nil
		},
	}
}

func otpCommand() *cli.Command {
	return &cli.Command{
		Name:  "otp",
		Usage: "One-time password flows",
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Request a one-time password by email",
				Flags: []cli.Flag{&cli.StringFlag{Name: "email", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					if err := e.sess.SendOTP(ctx, models.SendOTP{Email: c.String("email")}); err != nil {
						return err
					}
					fmt.Println("OTP sent")
					return nil
				},
			},
			{
				Name:  "verify",
				Usage: "Verify a one-time password without logging in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "code", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					if err := e.sess.VerifyOTP(ctx, models.VerifyOTP{Email: c.String("email"), OTP: c.String("code")}); err != nil {
						return err
					}
					fmt.Println("OTP verified")
					return nil
				},
			},
			{
				Name:  "login",
				Usage: "Log in with a one-time password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "code", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					user, err := e.sess.OTPLogin(ctx, models.VerifyOTP{Email: c.String("email"), OTP: c.String("code")})
					if err != nil {
						return err
					}
					fmt.Printf("Logged in as %s\n", user.Username)
					return nil
				},
			},
		},
	}
}

func passwordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "Password management",
		Commands: []*cli.Command{
			{
				Name:  "change",
				Usage: "Change the current account's password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "old", Required: true},
					&cli.StringFlag{Name: "new", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					dto := models.ChangePassword{
						OldPassword: c.String("old"),
						NewPassword: c.String("new"),
					}
					f := form.New(printNotifier{}, nil)
					ok := f.Submit(ctx, func(errs form.Errors) {
						form.Required(errs, "OldPassword", dto.OldPassword)
						form.Password(errs, "NewPassword", dto.NewPassword)
					}, func(ctx context.Context) error {
						return e.sess.ChangePassword(ctx, dto)
					})
					if !ok {
						return fmt.Errorf("password change failed")
					}
					fmt.Println("Password changed")
					return nil
				},
			},
			{
				Name:  "forgot",
				Usage: "Start the email reset flow",
				Flags: []cli.Flag{&cli.StringFlag{Name: "email", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					if err := e.sess.ForgetPassword(ctx, models.ForgetPassword{Email: c.String("email")}); err != nil {
						return err
					}
					fmt.Println("Reset code sent")
					return nil
				},
			},
		},
	}
}

func sectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sections",
		Usage: "List the navigation sections visible to the current actor",
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := buildEnv(c)
			if err != nil {
				return err
			}
			user := e.sess.Current()
			if user == nil {
				fmt.Println("Not logged in")
				return nil
			}
			for _, s := range models.VisibleSections(user.UserRole) {
				fmt.Println(s)
			}
			return nil
		},
	}
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload a media file to cloud storage",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "local path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			uploader, err := storage.NewFromEnv(ctx)
			if err != nil {
				return err
			}
			f, err := os.Open(c.String("file"))
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(c.String("file"))
			contentType := mime.TypeByExtension(filepath.Ext(name))
			url, err := uploader.Upload(ctx, name, contentType, f)
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "search", Usage: "server-side search term"},
		&cli.IntFlag{Name: "page", Value: 1},
		&cli.IntFlag{Name: "page-size", Value: 0, Usage: "override the configured page size"},
		&cli.StringFlag{Name: "status", Usage: "comma-separated numeric statuses"},
	}
}

func parseStatuses(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid status %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// runList drives the shared list controller: load, then apply search, status
// filter and page navigation the same way the console pages do.
func runList[T any](ctx context.Context, c *cli.Command, list *controller.List[T]) error {
	if !list.CanView() {
		return fmt.Errorf("the current role cannot view this section")
	}

	list.Load(ctx)
	if term := c.String("search"); term != "" {
		list.Search(ctx, term)
	}
	statuses, err := parseStatuses(c.String("status"))
	if err != nil {
		return err
	}
	if len(statuses) > 0 {
		list.FilterStatus(ctx, statuses)
	}
	if page := c.Int("page"); page > 1 {
		list.GoToPage(ctx, page)
	}

	if err := printJSON(list.Items()); err != nil {
		return err
	}
	pager := list.Pager()
	if list.Counted() {
		fmt.Fprintf(os.Stderr, "page %d/%d (%d total)\n", pager.Page(), pager.PageCount(), pager.Total())
	}
	return nil
}

func pageSize(c *cli.Command, e *env) int {
	if n := c.Int("page-size"); n > 0 {
		return n
	}
	return e.cfg.PageSize
}

// resourceCommand builds the list/get/delete surface shared by every entity
// set. Mutations go through the controller so role gating applies.
func resourceCommand[T any](name string, bind func(*odata.Client) *resources.Binding[T]) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "Manage " + name,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List " + name,
				Flags: listFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					list := controller.NewList[T](bind(e.client), e.sess, printNotifier{}, pageSize(c, e))
					return runList(ctx, c, list)
				},
			},
			{
				Name:      "get",
				Usage:     "Fetch one record by key",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one key argument")
					}
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					item, err := bind(e.client).Get(ctx, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(item)
				},
			},
			{
				Name:  "create",
				Usage: "Create a record from a JSON document",
				Flags: []cli.Flag{&cli.StringFlag{Name: "json", Required: true, Usage: "entity body, or @file"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					item, err := decodeEntity[T](c.String("json"))
					if err != nil {
						return err
					}
					list := controller.NewList[T](bind(e.client), e.sess, printNotifier{}, pageSize(c, e))
					if !list.Create(ctx, item) {
						return fmt.Errorf("create failed")
					}
					fmt.Println("Created")
					return nil
				},
			},
			{
				Name:  "update",
				Usage: "Update a record from a JSON document",
				Flags: []cli.Flag{&cli.StringFlag{Name: "json", Required: true, Usage: "entity body, or @file"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					item, err := decodeEntity[T](c.String("json"))
					if err != nil {
						return err
					}
					list := controller.NewList[T](bind(e.client), e.sess, printNotifier{}, pageSize(c, e))
					if !list.Update(ctx, item) {
						return fmt.Errorf("update failed")
					}
					fmt.Println("Updated")
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a record by key",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one key argument")
					}
					e, err := buildEnv(c)
					if err != nil {
						return err
					}
					binding := bind(e.client)
					item, err := binding.Get(ctx, c.Args().First())
					if err != nil {
						return err
					}
					list := controller.NewList[T](binding, e.sess, printNotifier{}, pageSize(c, e))
					list.Load(ctx)
					if !list.Delete(ctx, item) {
						return fmt.Errorf("delete failed")
					}
					fmt.Println("Deleted")
					return nil
				},
			},
		},
	}
}

func decodeEntity[T any](raw string) (T, error) {
	var item T
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(raw[1:])
		if err != nil {
			return item, err
		}
		raw = string(data)
	}
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return item, fmt.Errorf("decoding entity: %w", err)
	}
	return item, nil
}
