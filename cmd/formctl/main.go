// Command formctl inspects and seeds a form builder database directly,
// without going through the HTTP API.
//
//	formctl seed
//	formctl forms --email demo@example.com
//	formctl form 1
//	formctl submissions 1 --limit 50
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/model"
	sqliteRepo "github.com/sakif/waform/internal/repository/sqlite"
	"github.com/sakif/waform/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "formctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "formctl",
		Usage: "inspect and seed the form builder database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path to the SQLite database",
				Value:   "data/forms.db",
				Sources: cli.EnvVars("DB_PATH"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "public URL used to build share links",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("BASE_URL"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "create the demo user and its contact form if missing",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(cmd, func(a *app) error {
						res, err := service.Seed(ctx, a.db.Users(), a.forms, auth.NewPasswordService(), a.logger)
						if err != nil {
							return err
						}
						if res.CreatedUser {
							fmt.Fprintf(out, "created user %s (password %q)\n", service.DemoEmail, service.DemoPassword)
						}
						if res.Form == nil {
							fmt.Fprintln(out, "demo user already has forms, nothing to seed")
							return nil
						}
						fmt.Fprintf(out, "created form %d: %s\n", res.Form.ID, a.forms.ShareURL(res.Form))
						return nil
					})
				},
			},
			{
				Name:  "forms",
				Usage: "list the forms of a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "owner email", Value: service.DemoEmail},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(cmd, func(a *app) error {
						user, err := a.db.Users().GetByEmail(ctx, cmd.String("email"))
						if err != nil {
							return err
						}
						forms, err := a.forms.List(ctx, user.ID, service.MaxListLimit, 0)
						if err != nil {
							return err
						}
						return printForms(out, a.forms, forms)
					})
				},
			},
			{
				Name:      "form",
				Usage:     "print one form as JSON",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := formID(cmd)
					if err != nil {
						return err
					}
					return withApp(cmd, func(a *app) error {
						form, err := a.db.Forms().GetByID(ctx, id)
						if err != nil {
							return err
						}
						return printJSON(out, struct {
							*model.Form
							ShareURL string `json:"shareUrl"`
						}{form, a.forms.ShareURL(form)})
					})
				},
			},
			{
				Name:      "submissions",
				Usage:     "print the submissions of a form as JSON, newest first",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "limit", Usage: "page size", Value: strconv.Itoa(service.DefaultListLimit)},
					&cli.StringFlag{Name: "offset", Usage: "rows to skip", Value: "0"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := formID(cmd)
					if err != nil {
						return err
					}
					limit, err := strconv.Atoi(cmd.String("limit"))
					if err != nil {
						return fmt.Errorf("invalid --limit %q", cmd.String("limit"))
					}
					offset, err := strconv.Atoi(cmd.String("offset"))
					if err != nil {
						return fmt.Errorf("invalid --offset %q", cmd.String("offset"))
					}
					return withApp(cmd, func(a *app) error {
						form, err := a.db.Forms().GetByID(ctx, id)
						if err != nil {
							return err
						}
						page, err := a.submissions.List(ctx, form.UserID, form.ID, limit, offset)
						if err != nil {
							return err
						}
						return printJSON(out, page)
					})
				},
			},
		},
	}
}

// app holds what the commands share. It talks to the services directly;
// ownership checks run as the form's owner.
type app struct {
	db          *sqliteRepo.DB
	forms       *service.FormService
	submissions *service.SubmissionService
	logger      *slog.Logger
}

func withApp(cmd *cli.Command, fn func(*app) error) error {
	level := slog.LevelWarn
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := sqliteRepo.New(cmd.String("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	forms := service.NewFormService(db.Forms(), db.Accounts(), cmd.String("base-url"), logger)
	return fn(&app{
		db:          db,
		forms:       forms,
		submissions: service.NewSubmissionService(forms, db.Submissions(), db.Accounts(), nil, nil, logger),
		logger:      logger,
	})
}

func formID(cmd *cli.Command) (int64, error) {
	if cmd.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one form id")
	}
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid form id %q", cmd.Args().First())
	}
	return id, nil
}

func printForms(out io.Writer, svc *service.FormService, forms []model.Form) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFIELDS\tUPDATED\tSHARE URL")
	for i := range forms {
		f := &forms[i]
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", f.ID, f.Title, len(f.Fields), f.UpdatedAt.Format("2006-01-02 15:04"), svc.ShareURL(f))
	}
	return tw.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
