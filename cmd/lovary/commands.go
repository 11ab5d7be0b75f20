package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/app"
	"github.com/lovary/lovary/internal/router"
)

const userAgent = "lovary-cli/1.0"

type globalFlags struct {
	configPath string
	apiURL     string
	logLevel   string
	ephemeral  bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		APIURL:     g.apiURL,
		LogLevel:   g.logLevel,
		Ephemeral:  g.ephemeral,
		UserAgent:  userAgent,
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "lovary",
		Short:         "A shared diary for two, in the terminal",
		Long:          "lovary keeps a daily diary with your partner. Without a subcommand it opens the interactive calendar.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), g.options())
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (default ~/.config/lovary/config.toml)")
	root.PersistentFlags().StringVar(&g.apiURL, "api-url", "", "backend base URL (overrides config and LOVARY_API_URL)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&g.ephemeral, "ephemeral", false, "keep the session in memory only")

	root.AddCommand(
		newLoginCmd(g),
		newRegisterCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newDiaryCmd(g),
		newAnniversaryCmd(g),
		newPhotoCmd(g),
		newPartnerCmd(g),
	)
	return root
}

// withEnv opens the wired client for the duration of fn.
func withEnv(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, env *app.Env) error) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(cmd.Context(), env)
}

func requireLogin(env *app.Env) error {
	if !env.Session.IsAuthenticated() {
		return errors.New("not logged in, run `lovary login` first")
	}
	return nil
}

// Auth

func newLoginCmd(g *globalFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				var err error
				if email, err = prompt(cmd, in, "Email: "); err != nil {
					return err
				}
			}
			password, err := readPassword(cmd, in)
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				env.Router.Enter(router.PathLogin)
				if err := env.Session.Login(ctx, email, password); err != nil {
					return err
				}
				me, err := env.Client.Me(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", me.DisplayName())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newRegisterCmd(g *globalFlags) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if name == "" {
				if name, err = prompt(cmd, in, "Name: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = prompt(cmd, in, "Email: "); err != nil {
					return err
				}
			}
			password, err := readPassword(cmd, in)
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				env.Router.Enter(router.PathRegister)
				if err := env.Session.Register(ctx, email, password, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", name)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	return cmd
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, g, func(_ context.Context, env *app.Env) error {
				env.Session.Logout()
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				me, err := env.Client.Me(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s <%s>\n", me.DisplayName(), me.Email)
				if me.Partner != nil {
					fmt.Fprintf(out, "partner: %s <%s>\n", me.Partner.DisplayName(), me.Partner.Email)
				} else {
					fmt.Fprintln(out, "partner: none")
				}
				if claims, err := env.Session.Claims(); err == nil && !claims.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "session expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}
}

// Diary

func newDiaryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diary",
		Short: "Read and write diary entries",
	}

	var partner bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List your entries, or your partner's with --partner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				fetch := env.Client.MyDiaries
				if partner {
					fetch = env.Client.PartnerDiaries
				}
				entries, err := fetch(ctx)
				if err != nil {
					return err
				}
				return printDiaries(cmd.OutOrStdout(), entries)
			})
		},
	}
	list.Flags().BoolVarP(&partner, "partner", "p", false, "list your partner's entries")

	day := &cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "Show both entries for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(time.DateOnly, args[0])
			if err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[0])
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				d, err := env.Client.DayDiaries(ctx, date.Year(), int(date.Month()), date.Day())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printEntry(out, d.MyName, d.MyDiary)
				fmt.Fprintln(out)
				printEntry(out, d.PartnerName, d.PartnerDiary)
				return nil
			})
		},
	}

	var title, content, file string
	var photos []string
	write := &cobra.Command{
		Use:   "write",
		Short: "Write today's entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				data, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				content = string(data)
			}
			entry := api.DiaryCreate{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
			if entry.Title == "" || entry.Content == "" {
				return errors.New("title and content are required")
			}
			attachments := make([]api.Attachment, 0, len(photos))
			for _, p := range photos {
				a, err := api.AttachmentFromFile(p)
				if err != nil {
					return err
				}
				attachments = append(attachments, a)
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				d, err := env.Client.CreateDiary(ctx, entry, attachments...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved entry #%d\n", d.ID)
				return nil
			})
		},
	}
	write.Flags().StringVarP(&title, "title", "t", "", "entry title")
	write.Flags().StringVarP(&content, "content", "m", "", "entry text")
	write.Flags().StringVarP(&file, "file", "f", "", "read entry text from a file, - for stdin")
	write.Flags().StringSliceVar(&photos, "photo", nil, "attach a photo (repeatable)")

	var editTitle, editContent string
	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit one of your entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				d, err := env.Client.UpdateDiary(ctx, id, api.DiaryCreate{Title: editTitle, Content: editContent})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated entry #%d\n", d.ID)
				return nil
			})
		},
	}
	edit.Flags().StringVarP(&editTitle, "title", "t", "", "new title")
	edit.Flags().StringVarP(&editContent, "content", "m", "", "new text")
	_ = edit.MarkFlagRequired("title")
	_ = edit.MarkFlagRequired("content")

	cmd.AddCommand(list, day, write, edit)
	return cmd
}

func printDiaries(w io.Writer, entries []api.Diary) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tREAD")
	for _, d := range entries {
		read := ""
		if d.IsReadByPartner {
			read = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.ID, d.ParsedCreatedAt().Local().Format(time.DateOnly), d.Title, read)
	}
	return tw.Flush()
}

func printEntry(w io.Writer, author string, d *api.Diary) {
	if author == "" {
		author = "?"
	}
	if d == nil {
		fmt.Fprintf(w, "%s: no entry\n", author)
		return
	}
	fmt.Fprintf(w, "%s: %s\n%s\n", author, d.Title, d.Content)
}

// Anniversaries

func newAnniversaryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "anniversary",
		Aliases: []string{"anniv"},
		Short:   "Manage shared anniversaries",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List anniversaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				items, err := env.Client.Anniversaries(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDATE\tNAME")
				for _, a := range items {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Date, a.Name)
				}
				return tw.Flush()
			})
		},
	}

	add := &cobra.Command{
		Use:   "add YYYY-MM-DD NAME",
		Short: "Add or rename the anniversary on a date",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := time.Parse(time.DateOnly, args[0]); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[0])
			}
			req := api.AnniversaryCreate{Date: args[0], Name: strings.Join(args[1:], " ")}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				a, err := env.Client.SaveAnniversary(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s on %s\n", a.Name, a.Date)
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete an anniversary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				if err := env.Client.DeleteAnniversary(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

// Photos

func newPhotoCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Manage the monthly couple photo",
	}

	upload := &cobra.Command{
		Use:   "upload YYYY-MM FILE",
		Short: "Set the photo for a month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := time.Parse("2006-01", args[0])
			if err != nil {
				return fmt.Errorf("invalid month %q, want YYYY-MM", args[0])
			}
			file, err := api.AttachmentFromFile(args[1])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				p, err := env.Client.UploadMonthlyPhoto(ctx, month.Year(), int(month.Month()), file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", env.Client.ResolveURL(p.PhotoURL))
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show YYYY-MM",
		Short: "Print the photo URL for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := time.Parse("2006-01", args[0])
			if err != nil {
				return fmt.Errorf("invalid month %q, want YYYY-MM", args[0])
			}
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				p, err := env.Client.MonthlyPhoto(ctx, month.Year(), int(month.Month()))
				if err != nil {
					return err
				}
				if p == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No photo for this month")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), env.Client.ResolveURL(p.PhotoURL))
				return nil
			})
		},
	}

	cmd.AddCommand(upload, show)
	return cmd
}

// Partner

func newPartnerCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partner",
		Short: "Connect with your partner",
	}

	requests := &cobra.Command{
		Use:   "requests",
		Short: "List partner requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				me, err := env.Client.Me(ctx)
				if err != nil {
					return err
				}
				reqs, err := env.Client.PartnerRequests(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDIRECTION\tWHO\tSTATUS")
				for _, r := range reqs {
					dir, who := "sent", r.Recipient.Email
					if r.Incoming(me.ID) {
						dir, who = "received", r.Requester.Email
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, dir, who, r.Status)
				}
				return tw.Flush()
			})
		},
	}

	request := &cobra.Command{
		Use:   "request EMAIL",
		Short: "Send a partner request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				if _, err := env.Client.SendPartnerRequest(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Request sent to %s\n", args[0])
				return nil
			})
		},
	}

	respond := func(use, short string, accept bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
					if err := requireLogin(env); err != nil {
						return err
					}
					call := env.Client.RejectPartnerRequest
					if accept {
						call = env.Client.AcceptPartnerRequest
					}
					msg, err := call(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), msg.Message)
					return nil
				})
			},
		}
	}

	disconnect := &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect from your partner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, g, func(ctx context.Context, env *app.Env) error {
				if err := requireLogin(env); err != nil {
					return err
				}
				msg, err := env.Client.DisconnectPartner(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg.Message)
				return nil
			})
		},
	}

	cmd.AddCommand(requests, request,
		respond("accept", "Accept a partner request", true),
		respond("reject", "Reject a partner request", false),
		disconnect,
	)
	return cmd
}

// Input helpers

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, otherwise one line from in.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
