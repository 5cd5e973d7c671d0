// Command hqdash is a CLI client for the HygieneQuest dashboard: role-based
// login, the session timer, and the three export authorization paths.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/apiclient"
	"github.com/hygienequest/dashboard/internal/config"
	"github.com/hygienequest/dashboard/internal/credstore"
	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/export"
	"github.com/hygienequest/dashboard/internal/model"
	"github.com/hygienequest/dashboard/internal/policy"
	"github.com/hygienequest/dashboard/internal/session"
	"github.com/hygienequest/dashboard/internal/stats"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `hqdash CLI
Usage:
  hqdash [-v] <cmd> [args]

Commands:
  version
  login     -role <superadmin|manager|fieldworker|schooladmin> -phone <number>
  logout
  whoami
  timer                                    (live session countdown)
  stats                                    (dashboard aggregates)
  export    -data <attendance|users> [-out dir]
  request   -data <attendance|users> -reason <text>
  requests  [-all]                         (-all is the approver view)
  approve   -id <request-id>
  reject    -id <request-id>
  download  -id <request-id> [-out dir]
  watch                                    (poll all requests; approver view)
`)
	os.Exit(2)
}

// fail prints a friendly message for the known error families and exits.
func fail(err error) {
	switch {
	case session.IsAuthErr(err):
		fmt.Fprintln(os.Stderr, "Session expired. Please log in again.")
	case errors.Is(err, errs.ErrTimeout):
		fmt.Fprintln(os.Stderr, "The server took too long to respond. Please try again.")
	case errors.Is(err, errs.ErrApprovalRequired):
		fmt.Fprintln(os.Stderr, "Your role requires approval to export. File one with: hqdash request")
	case errors.Is(err, errs.ErrConfiguration):
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

type app struct {
	cfg     config.Config
	api     *apiclient.Client
	store   credstore.Store
	session *session.Manager
	log     *zap.Logger
}

func newApp(verbose bool) *app {
	cfg := config.Load()

	log := zap.NewNop()
	if verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fail(err)
		}
	}

	opts := apiclient.Options{
		BaseURL:     cfg.APIBaseURL,
		DataTimeout: cfg.DataTimeout,
		OTPTimeout:  cfg.OTPTimeout,
	}
	if cfg.DegradedMode {
		opts.Degraded = apiclient.SampleData{}
	}
	api := apiclient.New(opts, log)
	store := credstore.NewFile(cfg.CredentialDir)
	mgr := session.NewManager(api, store, session.Config{
		TTL:            cfg.SessionTTL,
		SchoolAdminTTL: cfg.SchoolAdminTTL,
		ResendCooldown: cfg.ResendCooldown,
	}, nil, log)

	return &app{cfg: cfg, api: api, store: store, session: mgr, log: log}
}

func (a *app) workflow() *export.TokenWorkflow {
	return export.NewTokenWorkflow(a.api, a.store, a.cfg.ExportTokenTTL, a.cfg.ResendCooldown, nil, a.log)
}

func (a *app) requests() *export.RequestService {
	return export.NewRequestService(a.api, nil, a.log)
}

// current loads the session or fails with the re-login message.
func (a *app) current() *model.Session {
	sess, err := a.session.Current()
	if err != nil {
		fail(err)
	}
	return sess
}

func readLine(prompt string) string {
	fmt.Print(prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func dataTypeLabel(arg string) string {
	if strings.HasPrefix(strings.ToLower(arg), "user") {
		return export.DataUsers
	}
	return export.DataAttendance
}

func writeExport(dir, name string, data []byte) {
	path := name
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fail(err)
		}
		path = filepath.Join(dir, name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func main() {
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	if cmd == "version" {
		fmt.Printf("hqdash %s (%s)\n", version, buildDate)
		return
	}

	a := newApp(*verbose)
	defer a.log.Sync() //nolint:errcheck

	ctx := context.Background()

	switch cmd {

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		roleArg := fs.String("role", "", "superadmin|manager|fieldworker|schooladmin")
		phone := fs.String("phone", "", "phone number")
		_ = fs.Parse(flag.Args()[1:])
		if *roleArg == "" || *phone == "" {
			fmt.Fprintln(os.Stderr, "need -role and -phone")
			os.Exit(1)
		}
		role := model.Role(strings.ToLower(*roleArg))

		if err := a.session.SendOTP(ctx, role, *phone); err != nil {
			fail(err)
		}
		fmt.Println("OTP sent.")

		for {
			code := readLine("Enter OTP (or 'resend'): ")
			if code == "resend" {
				if err := a.session.Resend(ctx, role, *phone); err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				fmt.Println("OTP re-sent.")
				continue
			}
			sess, err := a.session.Verify(ctx, role, *phone, code)
			if err != nil {
				if errors.Is(err, errs.ErrValidation) {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				fail(err)
			}
			fmt.Printf("Logged in as %s (%s). Session expires %s.\n",
				sess.Name, sess.Role, sess.ExpiresAt.Local().Format(time.Kitchen))
			return
		}

	case "logout":
		if err := a.session.Logout(); err != nil {
			fail(err)
		}
		fmt.Println("Logged out.")

	case "whoami":
		sess := a.current()
		fmt.Printf("%s (%s)\n", sess.Name, sess.Role)
		if sess.School != "" {
			fmt.Printf("School:   %s\n", sess.School)
		}
		if sess.District != "" {
			fmt.Printf("District: %s\n", sess.District)
		}
		if path, err := policy.Resolve(sess.Role); err == nil {
			fmt.Printf("Export:   %s\n", path)
		}
		fmt.Printf("Session:  %s left\n", session.FormatRemaining(a.session.Remaining()))

	case "timer":
		a.current()
		err := a.session.Countdown(ctx, func(left time.Duration) {
			fmt.Printf("\rSession: %s ", session.FormatRemaining(left))
		}, func() {
			fmt.Println("\nSession expired. Please log in again.")
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			fail(err)
		}

	case "stats":
		sess := a.current()
		attendance, err := a.api.Attendances(ctx, sess.AccessToken)
		if err != nil {
			fail(err)
		}
		users, err := a.api.Registrations(ctx, sess.AccessToken)
		if err != nil {
			fail(err)
		}
		s := stats.Calculate(attendance, users)
		fmt.Printf("Present: %d  Absent: %d  Rate: %.1f%%\n", s.TotalPresent, s.TotalAbsent, s.AttendanceRate)
		fmt.Printf("Teachers: %d  Schools: %d  Districts: %d\n", s.TotalTeachers, s.TotalSchools, s.TotalDistricts)
		for _, rc := range stats.AbsenceReasons(attendance) {
			fmt.Printf("  %-14s %d\n", rc.Name, rc.Count)
		}

	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		data := fs.String("data", "attendance", "attendance|users")
		out := fs.String("out", "", "output directory")
		_ = fs.Parse(flag.Args()[1:])

		sess := a.current()
		dataType := dataTypeLabel(*data)
		wf := a.workflow()
		exp := export.NewExporter(a.api, wf, nil, a.log)

		name, bytes, err := exp.Export(ctx, sess, dataType)
		if errors.Is(err, errs.ErrOTPRequired) {
			count, cerr := exp.RecordCount(ctx, sess, dataType)
			if cerr != nil {
				fail(cerr)
			}
			if err := wf.Begin(ctx, sess, dataType, count); err != nil {
				fail(err)
			}
			if wf.State() != export.StateAuthorized {
				fmt.Println("OTP sent for export verification.")
				for {
					code := readLine("Enter OTP: ")
					if verr := wf.Verify(ctx, sess, code); verr != nil {
						if errors.Is(verr, errs.ErrValidation) {
							fmt.Fprintln(os.Stderr, verr)
							continue
						}
						fail(verr)
					}
					break
				}
			}
			name, bytes, err = exp.Export(ctx, sess, dataType)
		}
		if err != nil {
			fail(err)
		}
		writeExport(*out, name, bytes)

	case "request":
		fs := flag.NewFlagSet("request", flag.ExitOnError)
		data := fs.String("data", "attendance", "attendance|users")
		reason := fs.String("reason", "", "why the export is needed")
		_ = fs.Parse(flag.Args()[1:])

		sess := a.current()
		dataType := dataTypeLabel(*data)
		exp := export.NewExporter(a.api, a.workflow(), nil, a.log)
		count, err := exp.RecordCount(ctx, sess, dataType)
		if err != nil {
			fail(err)
		}
		req, err := a.requests().Submit(ctx, sess, dataType, count, *reason)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Request #%d submitted (%s, %d records). Status: %s\n",
			req.ID, dataType, count, req.Status)

	case "requests":
		fs := flag.NewFlagSet("requests", flag.ExitOnError)
		all := fs.Bool("all", false, "every request (approver view)")
		_ = fs.Parse(flag.Args()[1:])

		sess := a.current()
		svc := a.requests()
		var reqs []model.ExportRequest
		var err error
		if *all {
			reqs, err = svc.List(ctx, sess)
		} else {
			reqs, err = svc.ListMine(ctx, sess)
		}
		if err != nil {
			fail(err)
		}
		printRequests(reqs)

	case "approve", "reject":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Int64("id", 0, "request id")
		_ = fs.Parse(flag.Args()[1:])
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		status := model.StatusApproved
		if cmd == "reject" {
			status = model.StatusRejected
		}
		sess := a.current()
		fresh, err := a.requests().Resolve(ctx, sess, *id, status)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Request #%d %s.\n", *id, status)
		printRequests(fresh)

	case "download":
		fs := flag.NewFlagSet("download", flag.ExitOnError)
		id := fs.Int64("id", 0, "request id")
		out := fs.String("out", "", "output directory")
		_ = fs.Parse(flag.Args()[1:])
		if *id == 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		sess := a.current()
		svc := a.requests()
		mine, err := svc.ListMine(ctx, sess)
		if err != nil {
			fail(err)
		}
		var target *model.ExportRequest
		for i := range mine {
			if mine[i].ID == *id {
				target = &mine[i]
				break
			}
		}
		if target == nil {
			fail(fmt.Errorf("request #%d not found", *id))
		}
		name, bytes, err := svc.DownloadApproved(ctx, sess, target)
		if err != nil {
			fail(err)
		}
		writeExport(*out, name, bytes)

	case "watch":
		sess := a.current()
		poller := export.NewPoller(a.requests(), a.cfg.PollInterval, a.log)
		fmt.Println("Watching export requests. Ctrl-C to stop.")
		err := poller.Run(ctx, sess, func(reqs []model.ExportRequest) {
			pending, approved, rejected := export.Counts(reqs)
			fmt.Printf("[%s] pending %d  approved %d  rejected %d\n",
				time.Now().Format("15:04:05"), pending, approved, rejected)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			fail(err)
		}

	default:
		usage()
	}
}

func printRequests(reqs []model.ExportRequest) {
	if len(reqs) == 0 {
		fmt.Println("No export requests.")
		return
	}
	pending, processed := export.Partition(reqs)
	if len(pending) > 0 {
		fmt.Println("Pending:")
		for _, r := range pending {
			fmt.Printf("  #%-4d %-20s %5d records  %s  %q\n",
				r.ID, r.DataType, r.RecordCount, r.RequesterName, r.Reason)
		}
	}
	if len(processed) > 0 {
		fmt.Println("Processed:")
		for _, r := range processed {
			by := r.ApprovedBy
			if by == "" {
				by = "-"
			}
			fmt.Printf("  #%-4d %-20s %-8s by %s\n", r.ID, r.DataType, r.Status, by)
		}
	}
}
