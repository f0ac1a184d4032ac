package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/app"
	"github.com/aussiebroadwan/dailydigest/pkg/cryptox"
	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
	"github.com/aussiebroadwan/dailydigest/pkg/jwtx"
)

// reachTimeout bounds the check-config request to the API host.
const reachTimeout = 5 * time.Second

func runDigest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	scheduled := fs.Bool("scheduled", os.Getenv("GITHUB_EVENT_NAME") == "schedule", "refresh the recipient uid from the UID API")
	if err := fs.Parse(args); err != nil {
		return err
	}

	application, err := app.New(ctx, loadConfig(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	res, err := application.Run(ctx, *scheduled)
	if err != nil {
		return err
	}

	application.Logger().Info("digest run finished",
		"run_id", res.RunID,
		"message_id", res.MessageID,
		"token_source", res.TokenSource,
		"failed_sources", res.Failed,
	)
	return nil
}

func runToken(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := loadConfig(os.Stderr)
	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	acq, err := application.TokenCache().Acquire(ctx)
	if err != nil {
		return err
	}

	header, claims, err := jwtx.Inspect(acq.Token)
	if err != nil {
		return fmt.Errorf("inspect token: %w", err)
	}

	fmt.Fprintf(out, "source:     %s\n", acq.Source)
	fmt.Fprintf(out, "expires_at: %s (%s left)\n", acq.ExpiresAt.Format(time.RFC3339), time.Until(acq.ExpiresAt).Round(time.Second))
	fmt.Fprintf(out, "header:     alg=%s kid=%s\n", header.Alg, header.Kid)
	fmt.Fprintf(out, "payload:    sub=%s iat=%d exp=%d\n", claims.Subject, claims.IssuedAtUnix(), claims.ExpiresAtUnix())

	// Check the signature against the public half of the configured key
	signer, err := jwtx.NewSignerEdDSA(cfg.QWeatherKeyID, []byte(cfg.QWeatherPrivateKey))
	if err != nil {
		fmt.Fprintf(out, "signature:  not checked (%v)\n", err)
	} else {
		keys := jwtx.NewKeySet()
		if err := keys.AddSigner(signer); err != nil {
			return err
		}
		if _, err := jwtx.NewVerifierEdDSA(keys, cfg.QWeatherProjectID).Verify(acq.Token); err != nil {
			fmt.Fprintf(out, "signature:  FAILED (%v)\n", err)
		} else {
			fmt.Fprintln(out, "signature:  ok")
		}
	}

	fmt.Fprintf(out, "\n%s\n", acq.Token)
	return nil
}

func runCheckConfig(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check-config", flag.ContinueOnError)
	reach := fs.Bool("reach", true, "send a request to the API host")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := loadConfig(os.Stderr)
	var problems []string

	fmt.Fprintf(out, "api host:    %q\n", cfg.QWeatherHost)
	if cfg.QWeatherHost == "" {
		problems = append(problems, "QWEATHER_API_HOST is not set")
	} else if u, err := url.Parse(cfg.QWeatherHost); err != nil || u.Host == "" {
		problems = append(problems, fmt.Sprintf("QWEATHER_API_HOST %q is not a valid URL", cfg.QWeatherHost))
	} else {
		fmt.Fprintf(out, "  scheme:    %s\n  hostname:  %s\n", u.Scheme, u.Hostname())
	}

	for _, c := range []struct{ name, value string }{
		{"QWEATHER_PRIVATE_KEY", cfg.QWeatherPrivateKey},
		{"QWEATHER_KEY_ID", cfg.QWeatherKeyID},
		{"QWEATHER_PROJECT_ID", cfg.QWeatherProjectID},
		{"WXPUSHER_APP_TOKEN", cfg.WxPusherAppToken},
	} {
		state := "set"
		if strings.TrimSpace(c.value) == "" {
			state = "MISSING"
			problems = append(problems, c.name+" is not set")
		}
		fmt.Fprintf(out, "%-21s %s\n", c.name+":", state)
	}

	if cfg.QWeatherPrivateKey != "" {
		if _, err := cryptox.ParseEd25519PrivateKey([]byte(cfg.QWeatherPrivateKey)); err != nil {
			problems = append(problems, fmt.Sprintf("QWEATHER_PRIVATE_KEY: %v", err))
		}
	}

	fmt.Fprintf(out, "token store: %s\nmodules:     %s\n", cfg.TokenStore, cfg.Modules)
	if unknown := cfg.Modules.Unknown(); len(unknown) > 0 {
		problems = append(problems, "unknown modules: "+strings.Join(unknown, ","))
	}

	if *reach && cfg.QWeatherHost != "" {
		pctx, cancel := context.WithTimeout(ctx, reachTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(pctx, http.MethodGet, cfg.QWeatherHost, nil)
		if err == nil {
			var resp *http.Response
			resp, err = httpx.NewClient(reachTimeout, nil).Do(req)
			if err == nil {
				_ = resp.Body.Close()
				fmt.Fprintf(out, "reachable:   HTTP %d\n", resp.StatusCode)
			}
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("api host unreachable: %v", err))
		}
	}

	if len(problems) > 0 {
		fmt.Fprintln(out, "\nproblems:")
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return errors.New("configuration has problems")
	}
	fmt.Fprintln(out, "\nconfiguration ok")
	return nil
}

func runKeygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	kid := fs.String("kid", "", "credential id to put in the JWK")
	if err := fs.Parse(args); err != nil {
		return err
	}

	privPEM, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return err
	}
	pubPEM, err := cryptox.PublicKeyPEM(privPEM)
	if err != nil {
		return err
	}
	priv, err := cryptox.ParseEd25519PrivateKey(privPEM)
	if err != nil {
		return err
	}

	jwk := jwtx.NewEd25519JWK(*kid, "sig", jwtx.AlgorithmEdDSA, priv.Public().(ed25519.PublicKey))
	rawJWK, err := json.MarshalIndent(jwk, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n%s\n%s\n", privPEM, pubPEM, rawJWK)
	return nil
}
