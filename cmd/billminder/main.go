package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/billminder-backend/internal/admin"
	"github.com/angelmondragon/billminder-backend/internal/auth"
	"github.com/angelmondragon/billminder-backend/internal/bills"
	"github.com/angelmondragon/billminder-backend/internal/credentials"
	"github.com/angelmondragon/billminder-backend/internal/guard"
	"github.com/angelmondragon/billminder-backend/internal/state"
	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const usage = `usage: billminder <command> [flags]

commands:
  signup      register a new account
  login       authenticate and persist the session
  logout      end the current session
  whoami      show the current session user
  bill        manage bills: add, list, pay, update, delete
  remind      evaluate reminder stages for a bill
  admin       administrative surface: users, logs, deactivate, reactivate, tier, maintenance
`

type app struct {
	auth  *auth.Service
	bills *bills.Service
	admin *admin.Service
	guard *guard.Guard
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "billminder", Console: true})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "billminder",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.IsDev(),
	})

	ctx := context.Background()

	store, closer, err := state.Open(ctx, cfg.Store, cfg.Limits, logg)
	if err != nil {
		logg.Error(ctx, "failed to open state store", err)
		os.Exit(1)
	}
	if closer != nil {
		defer func() {
			if err := closer.Close(); err != nil {
				logg.Error(ctx, "error closing state store", err)
			}
		}()
	}

	creds, err := credentials.NewStore(cfg.Credentials.Path, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to open credential store", err)
		os.Exit(1)
	}

	cache, err := auth.NewSessionCache(cfg.Session)
	if err != nil {
		logg.Error(ctx, "failed to create session cache", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Store:       store,
		Credentials: creds,
		Cache:       cache,
		AdminEmail:  cfg.Admin.Email,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}
	authService.Restore(ctx)

	billService, err := bills.NewService(bills.ServiceParams{
		Store:      store,
		AdminEmail: cfg.Admin.Email,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create bill service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Store:      store,
		AdminEmail: cfg.Admin.Email,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create admin service", err)
		os.Exit(1)
	}

	accessGuard, err := guard.New(cfg.Admin.Email)
	if err != nil {
		logg.Error(ctx, "failed to create guard", err)
		os.Exit(1)
	}

	a := &app{
		auth:  authService,
		bills: billService,
		admin: adminService,
		guard: accessGuard,
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "billminder: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.signup(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.auth.Logout(ctx)
	case "whoami":
		return a.whoami()
	case "bill":
		return a.bill(ctx, args)
	case "remind":
		return a.remind(ctx, args)
	case "admin":
		return a.adminCmd(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	password := fs.String("password", "", "password (min 8 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Signup(ctx, auth.SignupRequest{
		FullName: *name,
		Email:    *email,
		Phone:    *phone,
		Password: *password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s (%s)\n", user.Email, user.ID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", user.Email)
	return nil
}

func (a *app) whoami() error {
	user, ok := a.auth.Current()
	if !ok {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s <%s> role=%s tier=%s\n", user.FullName, user.Email, user.Role, user.Tier)
	return nil
}

// requireUser gates a protected command the same way a protected view would.
func (a *app) requireUser(surface guard.Surface) (models.User, error) {
	switch a.guard.Decide(a.auth.Session(), surface) {
	case guard.Allow:
		user, _ := a.auth.Current()
		return user, nil
	case guard.RedirectLogin:
		return models.User{}, fmt.Errorf("not logged in, run: billminder login")
	default:
		return models.User{}, fmt.Errorf("not found")
	}
}

func (a *app) bill(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: billminder bill <add|list|pay|update|delete> [flags]")
	}

	user, err := a.requireUser(guard.Surface{})
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("bill add", flag.ExitOnError)
		name := fs.String("name", "", "bill name")
		category := fs.String("category", string(enums.BillCategoryOther), "rent|utilities|subscription|loan|insurance|other")
		amount := fs.String("amount", "0", "amount, e.g. 1200.50")
		currency := fs.String("currency", string(enums.CurrencyUSD), "currency code")
		due := fs.String("due", "", "due date, YYYY-MM-DD")
		recurrence := fs.String("recurrence", string(enums.RecurrenceMonthly), "one-time|weekly|monthly|termly|yearly")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", *amount, err)
		}
		dueDate, err := time.Parse(time.DateOnly, *due)
		if err != nil {
			return fmt.Errorf("invalid due date %q, want YYYY-MM-DD", *due)
		}

		bill, err := a.bills.Create(ctx, user, bills.CreateBillRequest{
			Name:       *name,
			Category:   enums.BillCategory(*category),
			Amount:     amt,
			Currency:   enums.Currency(*currency),
			DueDate:    dueDate,
			Recurrence: enums.Recurrence(*recurrence),
		})
		if err != nil {
			return err
		}
		fmt.Printf("added bill %s (%s)\n", bill.Name, bill.ID)
		return nil

	case "list":
		for _, bill := range a.bills.ListByOwner(ctx, user) {
			status := "due " + bill.DueDate.Format(time.DateOnly)
			if bill.IsPaid {
				status = "paid"
			}
			fmt.Printf("%s  %s%s  %s  %s  [%s]\n",
				bill.ID, bill.Currency.Symbol(), bill.Amount.StringFixed(2), bill.Name, status, bill.Recurrence)
		}
		return nil

	case "pay":
		id, err := parseBillID(args[1:])
		if err != nil {
			return err
		}
		paid, successor, err := a.bills.MarkPaid(ctx, user, id)
		if err != nil {
			return err
		}
		fmt.Printf("paid %s\n", paid.Name)
		if successor != nil {
			fmt.Printf("next cycle due %s\n", successor.DueDate.Format(time.DateOnly))
		}
		return nil

	case "update":
		fs := flag.NewFlagSet("bill update", flag.ExitOnError)
		idArg := fs.String("id", "", "bill id")
		name := fs.String("name", "", "new name")
		amount := fs.String("amount", "", "new amount")
		due := fs.String("due", "", "new due date, YYYY-MM-DD")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		id, err := uuid.Parse(*idArg)
		if err != nil {
			return fmt.Errorf("invalid bill id %q", *idArg)
		}

		var req bills.UpdateBillRequest
		if *name != "" {
			req.Name = name
		}
		if *amount != "" {
			amt, err := decimal.NewFromString(*amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", *amount, err)
			}
			req.Amount = &amt
		}
		if *due != "" {
			dueDate, err := time.Parse(time.DateOnly, *due)
			if err != nil {
				return fmt.Errorf("invalid due date %q, want YYYY-MM-DD", *due)
			}
			req.DueDate = &dueDate
		}

		updated, err := a.bills.Update(ctx, user, id, req)
		if err != nil {
			return err
		}
		fmt.Printf("updated %s\n", updated.Name)
		return nil

	case "delete":
		id, err := parseBillID(args[1:])
		if err != nil {
			return err
		}
		if err := a.bills.Delete(ctx, user, id); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil

	default:
		return fmt.Errorf("unknown bill command %q", args[0])
	}
}

func (a *app) remind(ctx context.Context, args []string) error {
	user, err := a.requireUser(guard.Surface{})
	if err != nil {
		return err
	}

	id, err := parseBillID(args)
	if err != nil {
		return err
	}
	fired, err := a.bills.EvaluateReminders(ctx, user, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if len(fired) == 0 {
		fmt.Println("no reminders due")
		return nil
	}
	names := make([]string, len(fired))
	for i, stage := range fired {
		names[i] = stage.String()
	}
	fmt.Printf("reminders fired: %s\n", strings.Join(names, ", "))
	return nil
}

func (a *app) adminCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	token := fs.String("token", "", "admin capability token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("usage: billminder admin -token <slug> <users|logs|deactivate|reactivate|tier|maintenance> [args]")
	}
	if *token == "" {
		return fmt.Errorf("not found")
	}

	actor, err := a.requireUser(guard.Surface{RequiresAdmin: true, SlugToken: *token})
	if err != nil {
		return err
	}

	switch rest[0] {
	case "users":
		users, err := a.admin.ListUsers(ctx, actor)
		if err != nil {
			return err
		}
		for _, user := range users {
			active := "active"
			if !user.IsActive {
				active = "deactivated"
			}
			fmt.Printf("%s  %s  role=%s tier=%s %s\n", user.ID, user.Email, user.Role, user.Tier, active)
		}
		return nil

	case "logs":
		logs, err := a.admin.ListLogs(ctx, actor)
		if err != nil {
			return err
		}
		for _, entry := range logs {
			fmt.Printf("%s  %-20s %s  %s\n",
				entry.Timestamp.Format(time.RFC3339), entry.Action, entry.UserID, entry.Details)
		}
		return nil

	case "deactivate", "reactivate":
		if len(rest) < 2 {
			return fmt.Errorf("usage: billminder admin -token <slug> %s <user-id>", rest[0])
		}
		id, err := uuid.Parse(rest[1])
		if err != nil {
			return fmt.Errorf("invalid user id %q", rest[1])
		}
		if rest[0] == "deactivate" {
			_, err = a.admin.DeactivateUser(ctx, actor, id)
		} else {
			_, err = a.admin.ReactivateUser(ctx, actor, id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%sd user %s\n", rest[0], id)
		return nil

	case "tier":
		if len(rest) < 3 {
			return fmt.Errorf("usage: billminder admin -token <slug> tier <user-id> <free|premium>")
		}
		id, err := uuid.Parse(rest[1])
		if err != nil {
			return fmt.Errorf("invalid user id %q", rest[1])
		}
		user, err := a.admin.SetTier(ctx, actor, id, enums.SubscriptionTier(rest[2]))
		if err != nil {
			return err
		}
		fmt.Printf("moved %s to tier %s\n", user.Email, user.Tier)
		return nil

	case "maintenance":
		if len(rest) < 2 || (rest[1] != "on" && rest[1] != "off") {
			return fmt.Errorf("usage: billminder admin -token <slug> maintenance <on|off>")
		}
		if err := a.admin.SetMaintenance(ctx, actor, rest[1] == "on"); err != nil {
			return err
		}
		fmt.Printf("maintenance %s\n", rest[1])
		return nil

	default:
		return fmt.Errorf("unknown admin command %q", rest[0])
	}
}

func parseBillID(args []string) (uuid.UUID, error) {
	if len(args) < 1 {
		return uuid.Nil, fmt.Errorf("bill id is required")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid bill id %q", args[0])
	}
	return id, nil
}
