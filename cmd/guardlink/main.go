// Command guardlink links a mobile authenticator to an account or moves an
// existing authenticator to this device. The out-of-band steps of the
// protocol (clicking the confirmation email, receiving the SMS code) are
// driven interactively on stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	sqliteadapter "github.com/ericfisherdev/guardlink/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/guardlink/internal/adapter/driven/steamweb"
	"github.com/ericfisherdev/guardlink/internal/application"
	"github.com/ericfisherdev/guardlink/internal/config"
	"github.com/ericfisherdev/guardlink/internal/domain/model"
	"github.com/ericfisherdev/guardlink/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	mode := "link"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if mode != "link" && mode != "move" {
		return fmt.Errorf("unknown mode %q: expected \"link\" or \"move\"", mode)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"steam_id", cfg.SteamID,
		"db_path", cfg.DBPath,
		"phone_number_set", cfg.PhoneNumber != "",
		"persistence", cfg.SecretKey != nil,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	store := sqliteadapter.NewAuthenticatorRepo(db, cfg.SecretKey)

	session := model.Session{
		SteamID:     cfg.SteamID,
		AccessToken: cfg.AccessToken,
		SessionID:   cfg.SessionID,
	}
	client, err := steamweb.NewClientWithHTTPClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.CommunityURL,
		cfg.APIURL,
		session,
	)
	if err != nil {
		return err
	}

	clock := application.NewClockSync(client)
	if err := clock.Align(ctx); err != nil {
		slog.Warn("clock alignment failed, activation codes will use local time", "error", err)
	}

	svc := application.NewLinkService(client, clock, cfg.PhoneNumber)
	in := bufio.NewReader(os.Stdin)

	switch mode {
	case "link":
		return runLink(ctx, svc, store, cfg.SteamID, in)
	default:
		return runMove(ctx, svc, store, cfg.SteamID, in)
	}
}

// runLink drives the new-enrollment protocol, feeding the out-of-band email
// confirmation back in before retrying the initiation step.
func runLink(ctx context.Context, svc *application.LinkService, store driven.AuthenticatorStore, steamID uint64, in *bufio.Reader) error {
	result := svc.AddAuthenticator(ctx)
	if result == model.LinkMustConfirmEmail {
		fmt.Println("A confirmation email was sent to the account's address.")
		if _, err := prompt(in, "Click the link it contains, then press enter: "); err != nil {
			return err
		}
		result = svc.AddAuthenticator(ctx)
	}

	switch result {
	case model.LinkAwaitingFinalization:
		// Proceed to activation below.
	case model.LinkMustProvidePhoneNumber:
		return fmt.Errorf("account has no phone number: set GUARDLINK_PHONE_NUMBER and retry")
	case model.LinkMustRemovePhoneNumber:
		return fmt.Errorf("account already has a phone number: unset GUARDLINK_PHONE_NUMBER and retry")
	case model.LinkAuthenticatorPresent:
		return fmt.Errorf("account already has an authenticator linked")
	default:
		return fmt.Errorf("enrollment initiation failed: %s", result)
	}

	return finalize(ctx, svc.FinalizeAddAuthenticator, svc, store, steamID, in)
}

// runMove drives the device-transfer protocol.
func runMove(ctx context.Context, svc *application.LinkService, store driven.AuthenticatorStore, steamID uint64, in *bufio.Reader) error {
	if result := svc.MoveAuthenticator(ctx); result != model.LinkAwaitingFinalization {
		return fmt.Errorf("transfer initiation failed: %s", result)
	}
	return finalize(ctx, svc.FinalizeMoveAuthenticator, svc, store, steamID, in)
}

// finalize prompts for the SMS code, runs the given finalization step, and
// persists the resulting credential.
func finalize(ctx context.Context, step func(context.Context, string) model.FinalizeResult, svc *application.LinkService, store driven.AuthenticatorStore, steamID uint64, in *bufio.Reader) error {
	smsCode, err := prompt(in, "Enter the SMS code sent to the account's phone: ")
	if err != nil {
		return err
	}

	if result := step(ctx, smsCode); result != model.FinalizeSuccess {
		return fmt.Errorf("finalization failed: %s", result)
	}

	auth := svc.Authenticator()
	fmt.Printf("Authenticator linked to %s.\n", auth.AccountName)
	fmt.Printf("Revocation code: %s -- write this down, it is the only way to unlink without the device.\n", auth.RevocationCode)

	if err := store.Save(ctx, steamID, auth); err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			slog.Warn("credential not persisted, set GUARDLINK_SECRET_KEY to enable storage")
			fmt.Printf("Shared secret (store this yourself): %s\n", auth.SharedSecret)
			return nil
		}
		return fmt.Errorf("persist credential: %w", err)
	}
	slog.Info("credential stored", "steam_id", steamID, "account", auth.AccountName)
	return nil
}

// prompt prints msg and reads one trimmed line from in.
func prompt(in *bufio.Reader, msg string) (string, error) {
	fmt.Print(msg)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
