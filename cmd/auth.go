package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"buskport-cli/model"
	"buskport-cli/service"
)

var errNoSession = errors.New("session storage is unavailable")

// prompter reads answers from the command's input. Passwords are read without
// echo when the input is a terminal.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, reader: bufio.NewReader(in), out: cmd.ErrOrStderr()}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	text, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (p *prompter) password(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return p.line(label)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to BuskPort",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()
			if e.session == nil {
				return errNoSession
			}

			p := newPrompter(cmd)
			if strings.TrimSpace(user) == "" {
				if user, err = p.line("User ID: "); err != nil {
					return err
				}
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}

			if err := e.session.Login(cmd.Context(), e.client, user, password); err != nil {
				e.logger.Warn("login failed", zap.String("user", user), zap.Error(err))
				if service.IsAuthRequired(err) {
					return errors.New("login failed: invalid ID or password")
				}
				return fmt.Errorf("login failed: %s", service.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", user)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID (prompted when empty)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved BuskPort session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()
			if e.session == nil {
				return errNoSession
			}
			if !e.session.LoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err := e.session.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newSignupCmd(opts *rootOptions) *cobra.Command {
	var req model.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a BuskPort account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			if req.Position != "" {
				position, err := matchPosition(req.Position)
				if err != nil {
					return err
				}
				req.Position = position
			}
			p := newPrompter(cmd)
			if req.Password, err = p.password("Password: "); err != nil {
				return err
			}
			req.SocialProvider = model.ProviderLocal

			if err := e.client.Signup(cmd.Context(), req); err != nil {
				e.logger.Warn("signup failed", zap.String("user", req.SocialId), zap.Error(err))
				return fmt.Errorf("signup failed: %s", service.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created. Run `buskport login --user %s` to log in.\n", req.SocialId, req.SocialId)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.SocialId, "user", "", "user ID")
	flags.StringVar(&req.Nickname, "nickname", "", "nickname shown to other buskers")
	flags.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	flags.StringVar(&req.ActivityRegion, "region", "", "activity region")
	flags.StringVar(&req.PreferredGenres, "genres", "", "preferred genres")
	flags.StringVar(&req.Position, "position", model.DefaultPosition, "position: "+strings.Join(model.Positions, ", "))
	flags.StringVar(&req.Introduction, "intro", "", "a short introduction")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("nickname")
	return cmd
}
