package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/client/config"
	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

// API is the HTTP surface used by the commands.
type API interface {
	Register(ctx context.Context, email, name string, age int, password []byte) (*client.Session, error)
	Login(ctx context.Context, email string, password []byte) (*client.Session, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*client.User, error)
}

// SessionRPC is the gRPC surface used by the commands.
type SessionRPC interface {
	SetAccessToken(token string)
	Ping(ctx context.Context) error
	WhoAmI(ctx context.Context) (*client.User, error)
}

type App struct {
	config *config.Config
	api    API
	rpc    SessionRPC
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, api API, rpc SessionRPC, in io.Reader, out io.Writer) *App {
	return &App{config: cfg, api: api, rpc: rpc, reader: bufio.NewReader(in), out: out}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.help()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	switch args[0] {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx, args[1:])
	case "logout":
		return a.Logout(ctx)
	case "me":
		return a.Me(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "status":
		return a.Status(ctx)
	case "help":
		a.help()
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, "Commands: register, login [email], logout, me, whoami, status, help")
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	ageText, err := GetSimpleText(a.reader, "Enter age", a.out)
	if err != nil {
		return err
	}
	age, err := strconv.Atoi(ageText)
	if err != nil {
		return fmt.Errorf("age must be a number: %w", err)
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Register(ctx, email, name, age, password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := saveToken(a.config.TokenFile, s.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s\n", s.User.Email)
	return nil
}

func (a *App) Login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := saveToken(a.config.TokenFile, s.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", s.User.Email)
	return nil
}

// Logout revokes the stored token on the server, then deletes it locally.
func (a *App) Logout(ctx context.Context) error {
	token, err := readToken(a.config.TokenFile)
	if err != nil {
		return err
	}
	if err := a.api.Logout(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if err := removeToken(a.config.TokenFile); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	token, err := readToken(a.config.TokenFile)
	if err != nil {
		return err
	}
	u, err := a.api.Me(ctx, token)
	if err != nil {
		return fmt.Errorf("me: %w", err)
	}
	a.printUser(u)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	token, err := readToken(a.config.TokenFile)
	if err != nil {
		return err
	}
	a.rpc.SetAccessToken(token)
	u, err := a.rpc.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	a.printUser(u)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if err := a.rpc.Ping(ctx); err != nil {
		fmt.Fprintln(a.out, "Server: offline")
		return err
	}
	fmt.Fprintln(a.out, "Server: online")
	return nil
}

func (a *App) printUser(u *client.User) {
	fmt.Fprintf(a.out, "%s (%s), age %d\n", u.Name, u.Email, u.Age)
}
