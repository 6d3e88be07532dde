// Command API exposes the MFA and session HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/oklog/run"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactapi"
	"github.com/strategiz/authcore/internal/credential"
	"github.com/strategiz/authcore/internal/credentialapi"
	"github.com/strategiz/authcore/internal/crypto"
	"github.com/strategiz/authcore/internal/devicetrust"
	"github.com/strategiz/authcore/internal/entropy"
	"github.com/strategiz/authcore/internal/httpapi"
	"github.com/strategiz/authcore/internal/kafka"
	"github.com/strategiz/authcore/internal/loginapi"
	"github.com/strategiz/authcore/internal/loginhistoryapi"
	"github.com/strategiz/authcore/internal/mail"
	"github.com/strategiz/authcore/internal/messaging"
	"github.com/strategiz/authcore/internal/mfa"
	"github.com/strategiz/authcore/internal/msgconsumer"
	"github.com/strategiz/authcore/internal/msgpublisher"
	"github.com/strategiz/authcore/internal/msgrepo"
	"github.com/strategiz/authcore/internal/otp"
	"github.com/strategiz/authcore/internal/passkeyapi"
	"github.com/strategiz/authcore/internal/password"
	"github.com/strategiz/authcore/internal/postgres"
	"github.com/strategiz/authcore/internal/sendgrid"
	"github.com/strategiz/authcore/internal/signupapi"
	"github.com/strategiz/authcore/internal/strategy"
	"github.com/strategiz/authcore/internal/token"
	"github.com/strategiz/authcore/internal/tokenapi"
	"github.com/strategiz/authcore/internal/totp"
	"github.com/strategiz/authcore/internal/totpapi"
	"github.com/strategiz/authcore/internal/trustapi"
	"github.com/strategiz/authcore/internal/twilio"
	"github.com/strategiz/authcore/internal/webauthn"
)

func main() {
	var err error

	var logger log.Logger
	{
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	var configPath string
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	{
		fs.Bool("api.debug", false, "Enable debug logging")
		fs.String("api.http-addr", ":8080", "Address to listen on")
		fs.String("api.allowed-origins", "*", "Comma separated list of allowed origins")
		fs.String("api.cookie-domain", "", "Domain to set HTTP cookie")
		fs.String("api.magic-link-url", "", "Magic link URL, %s is replaced by the code")
		fs.String("pg.conn-string", "", "Postgres connection string")
		fs.String("redis.conn-string", "", "Redis connection string")
		fs.Int("password.min-length", 8, "Minimum password length")
		fs.Int("password.max-length", 72, "Maximum password length")
		fs.Int("otp.code-length", 6, "OTP code length")
		fs.Duration("otp.ttl", time.Minute*10, "OTP lifetime")
		fs.Int("otp.max-attempts", 3, "Verification attempts per OTP")
		fs.Duration("otp.cooldown", time.Minute, "Minimum time between OTPs to a recipient")
		fs.Bool("otp.dev-mode", false, "Log OTP codes at debug level")
		fs.Int("lockout.max-failures", 5, "Failed attempts per user and factor before lockout")
		fs.Duration("lockout.window", time.Minute*15, "How long failed attempts are counted")
		fs.String("totp.issuer", "", "TOTP issuer domain")
		fs.String("totp.secret.key", "", "Encryption key for TOTP secrets")
		fs.Int("totp.secret.version", 1, "Current version of encryption key")
		fs.Duration("token.expires-in", time.Minute*30, "Access token expiry time")
		fs.Duration("token.refresh-expires-in", time.Hour*24*30, "Refresh token expiry time")
		fs.Duration("token.cleanup-interval", time.Hour, "Interval between expired session sweeps")
		fs.String("token.issuer", "authcore", "JWT token issuer")
		fs.String("token.secret", "", "JWT token secret")
		fs.Duration("device-trust.challenge-ttl", time.Minute, "Device challenge lifetime")
		fs.String("webauthn.display-name", "Authcore", "Webauthn display name")
		fs.String("webauthn.domain", "authcore.local", "Public client domain")
		fs.String("webauthn.request-origin", "authcore.local", "Origin URL for client requests")
		fs.Bool("messaging.async", true, "Deliver messages through a queue and worker pool")
		fs.Int("msgconsumer.workers", 4, "Total number of workers to process outgoing messages")
		fs.String("msgconsumer.sms-limit", "1/s", "SMS delivery rate as limit/unit")
		fs.String("msgconsumer.email-limit", "5/s", "Email delivery rate as limit/unit")
		fs.StringSlice("kafka.brokers", []string{}, "Kafka broker host:port")
		fs.String("twilio.account-sid", "", "Account SID from Twilio")
		fs.String("twilio.token", "", "Authentication token for Twilio API")
		fs.String("twilio.sms-sender", "", "Origin phone number for outgoing SMS")
		fs.String("sendgrid.api-key", "", "SendGrid API key, SMTP is used when empty")
		fs.String("sendgrid.from-name", "Authcore", "Sender name for SendGrid email")
		fs.String("mail.server-addr", "", "Outgoing mail server")
		fs.String("mail.from-addr", "", "Origin email address for outgoing email")
		fs.String("mail.auth.username", "", "Username for mailing service")
		fs.String("mail.auth.password", "", "Password for mailing service")
		fs.String("mail.auth.hostname", "", "Hostname for mailing service")

		fs.StringVar(&configPath, "config", "", "Path to the config file")
		err = fs.Parse(os.Args[1:])
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		if err != nil {
			logger.Log("message", "failed to parse cli flags", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}

	if _, err = os.Stat(configPath); !os.IsNotExist(err) {
		viper.SetConfigFile(configPath)
		err = viper.ReadInConfig()
		if err != nil {
			logger.Log("message", "failed to load config file", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}
	if err = viper.BindPFlags(fs); err != nil {
		logger.Log("message", "failed to load cli flags", "error", err, "source", "cmd/api")
		os.Exit(1)
	}

	if viper.GetBool("api.debug") {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	passwordSvc := password.NewPassword(
		password.WithMinLength(viper.GetInt("password.min-length")),
		password.WithMaxLength(viper.GetInt("password.max-length")),
	)

	var pgDB *sql.DB
	{
		pgDB, err = sql.Open("postgres", viper.GetString("pg.conn-string"))
		if err != nil {
			logger.Log(
				"message", "postgres connection failed",
				"error", err,
				"source", "cmd/api",
			)
			os.Exit(1)
		}
		if err = pgDB.PingContext(ctx); err != nil {
			logger.Log("message", "postgres did not respond", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		defer func() {
			if err = pgDB.Close(); err != nil {
				logger.Log(
					"message", "failed to close postgres connection",
					"error", err,
					"source", "cmd/api",
				)
			}
		}()
	}

	var redisDB *redis.Client
	{
		redisConf, err := redis.ParseURL(viper.GetString("redis.conn-string"))
		if err != nil {
			logger.Log("message", "invalid redis configuration", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		redisDB = redis.NewClient(redisConf)
		closeRedis := func() {
			if err = redisDB.Close(); err != nil {
				logger.Log(
					"message", "failed to close redis connection",
					"error", err,
					"source", "cmd/api",
				)
			}
		}

		if err = redisDB.Ping(ctx).Err(); err != nil {
			logger.Log("message", "redis connection failed", "error", err, "source", "cmd/api")
			closeRedis()
			os.Exit(1)
		}
		defer closeRedis()
	}

	sealer, err := crypto.NewSealer(crypto.Secret{
		Key:     viper.GetString("totp.secret.key"),
		Version: viper.GetInt("totp.secret.version"),
	})
	if err != nil {
		logger.Log("message", "invalid TOTP secret configuration", "error", err, "source", "cmd/api")
		os.Exit(1)
	}

	repoMngr := postgres.NewClient(
		postgres.WithLogger(logger),
		postgres.WithEntropy(entropy.New()),
		postgres.WithPassword(passwordSvc),
		postgres.WithDB(pgDB),
	)

	smsLib := twilio.NewClient(twilio.WithDefaults(
		viper.GetString("twilio.account-sid"),
		viper.GetString("twilio.token"),
		viper.GetString("twilio.sms-sender"),
	))

	var emailLib auth.Emailer
	if apiKey := viper.GetString("sendgrid.api-key"); apiKey != "" {
		emailLib = sendgrid.NewClient(
			apiKey,
			viper.GetString("mail.from-addr"),
			viper.GetString("sendgrid.from-name"),
		)
	} else {
		emailLib = mail.NewService(mail.WithDefaults(
			viper.GetString("mail.server-addr"),
			viper.GetString("mail.from-addr"),
			smtp.PlainAuth(
				"",
				viper.GetString("mail.auth.username"),
				viper.GetString("mail.auth.password"),
				viper.GetString("mail.auth.hostname"),
			),
		))
	}

	var (
		messagingSvc auth.MessagingService
		msgd         msgconsumer.Consumer
	)
	if viper.GetBool("messaging.async") {
		var messageRepo auth.MessageRepository
		if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
			k := kafka.NewClient(brokers)
			defer func() {
				if err := k.Close(); err != nil {
					logger.Log("message", "failed to close kafka client", "error", err, "source", "cmd/api")
				}
			}()
			messageRepo = kafka.NewMessageRepository(k)
		} else {
			messageRepo = msgrepo.NewService(msgrepo.WithLogger(logger))
		}

		messagingSvc = msgpublisher.NewService(messageRepo, msgpublisher.WithLogger(logger))

		msgd, err = msgconsumer.NewService(
			messageRepo,
			smsLib,
			emailLib,
			msgconsumer.WithWorkers(viper.GetInt("msgconsumer.workers")),
			msgconsumer.WithSMSLimit(viper.GetString("msgconsumer.sms-limit")),
			msgconsumer.WithEmailLimit(viper.GetString("msgconsumer.email-limit")),
			msgconsumer.WithLogger(logger),
		)
		if err != nil {
			logger.Log(
				"message", "failed to build messaging daemon",
				"error", err,
				"source", "cmd/api",
			)
			os.Exit(1)
		}
	} else {
		messagingSvc = messaging.NewService(smsLib, emailLib, messaging.WithLogger(logger))
	}

	otpSvc := otp.NewOTP(
		otp.WithLogger(logger),
		otp.WithDB(redisDB),
		otp.WithMessaging(messagingSvc),
		otp.WithCodeLength(viper.GetInt("otp.code-length")),
		otp.WithTTL(viper.GetDuration("otp.ttl")),
		otp.WithMaxAttempts(viper.GetInt("otp.max-attempts")),
		otp.WithCooldown(viper.GetDuration("otp.cooldown")),
		otp.WithDevMode(viper.GetBool("otp.dev-mode")),
	)

	tokenSvc := token.NewService(
		token.WithLogger(logger),
		token.WithDB(redisDB),
		token.WithRepoManager(repoMngr),
		token.WithTokenExpiry(viper.GetDuration("token.expires-in")),
		token.WithRefreshTokenExpiry(viper.GetDuration("token.refresh-expires-in")),
		token.WithIssuer(viper.GetString("token.issuer")),
		token.WithSecret(viper.GetString("token.secret")),
	)

	webauthnSvc, err := webauthn.NewService(
		webauthn.WithLogger(logger),
		webauthn.WithDB(redisDB),
		webauthn.WithDisplayName(viper.GetString("webauthn.display-name")),
		webauthn.WithDomain(viper.GetString("webauthn.domain")),
		webauthn.WithRequestOrigin(viper.GetString("webauthn.request-origin")),
		webauthn.WithRepoManager(repoMngr),
	)
	if err != nil {
		logger.Log("message", "failed to build webauthn service", "error", err, "source", "cmd/api")
		os.Exit(1)
	}

	totpSvc := totp.NewService(
		totp.WithLogger(logger),
		totp.WithDB(redisDB),
		totp.WithRepoManager(repoMngr),
		totp.WithSealer(sealer),
		totp.WithIssuer(viper.GetString("totp.issuer")),
	)

	deviceTrustSvc := devicetrust.NewService(
		devicetrust.WithLogger(logger),
		devicetrust.WithDB(redisDB),
		devicetrust.WithRepoManager(repoMngr),
		devicetrust.WithTokenService(tokenSvc),
		devicetrust.WithChallengeTTL(viper.GetDuration("device-trust.challenge-ttl")),
	)

	mfaSvc := mfa.NewService(
		mfa.WithLogger(logger),
		mfa.WithRepoManager(repoMngr),
	)

	credentialSvc := credential.NewService(
		credential.WithLogger(logger),
		credential.WithRepoManager(repoMngr),
		credential.WithMFA(mfaSvc),
	)

	strategies := strategy.NewSet(
		strategy.WithLogger(logger),
		strategy.WithDB(redisDB),
		strategy.WithMaxFailures(viper.GetInt("lockout.max-failures")),
		strategy.WithLockout(viper.GetDuration("lockout.window")),
		strategy.WithRepoManager(repoMngr),
		strategy.WithPassword(passwordSvc),
		strategy.WithWebAuthn(webauthnSvc),
		strategy.WithTOTP(totpSvc),
		strategy.WithOTP(otpSvc),
		strategy.WithDeviceTrust(deviceTrustSvc),
	)

	cookieDomain := viper.GetString("api.cookie-domain")

	signupAPI := signupapi.NewService(
		signupapi.WithLogger(logger),
		signupapi.WithTokenService(tokenSvc),
		signupapi.WithRepoManager(repoMngr),
		signupapi.WithOTP(otpSvc),
		signupapi.WithPassword(passwordSvc),
		signupapi.WithCookieDomain(cookieDomain),
	)

	loginAPI := loginapi.NewService(
		loginapi.WithLogger(logger),
		loginapi.WithTokenService(tokenSvc),
		loginapi.WithRepoManager(repoMngr),
		loginapi.WithOTP(otpSvc),
		loginapi.WithWebAuthn(webauthnSvc),
		loginapi.WithStrategies(strategies),
		loginapi.WithMFA(mfaSvc),
		loginapi.WithMagicLinkURL(viper.GetString("api.magic-link-url")),
		loginapi.WithCookieDomain(cookieDomain),
	)

	tokenAPI := tokenapi.NewService(
		tokenapi.WithLogger(logger),
		tokenapi.WithTokenService(tokenSvc),
		tokenapi.WithCookieDomain(cookieDomain),
	)

	totpAPI := totpapi.NewService(
		totpapi.WithLogger(logger),
		totpapi.WithTOTP(totpSvc),
		totpapi.WithRepoManager(repoMngr),
	)

	passkeyAPI := passkeyapi.NewService(
		passkeyapi.WithLogger(logger),
		passkeyapi.WithWebAuthn(webauthnSvc),
		passkeyapi.WithRepoManager(repoMngr),
	)

	contactAPI := contactapi.NewService(
		contactapi.WithLogger(logger),
		contactapi.WithOTP(otpSvc),
		contactapi.WithRepoManager(repoMngr),
	)

	credentialAPI := credentialapi.NewService(
		credentialapi.WithLogger(logger),
		credentialapi.WithCredentialService(credentialSvc),
		credentialapi.WithMFA(mfaSvc),
	)

	trustAPI := trustapi.NewService(
		trustapi.WithLogger(logger),
		trustapi.WithDeviceTrust(deviceTrustSvc),
		trustapi.WithCookieDomain(cookieDomain),
	)

	loginHistoryAPI := loginhistoryapi.NewService(
		loginhistoryapi.WithLogger(logger),
		loginhistoryapi.WithRepoManager(repoMngr),
	)

	limiterFactory := httpapi.NewRateLimiter(redisDB)

	router := mux.NewRouter()
	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	signupapi.SetupHTTPHandler(signupAPI, router, logger)
	loginapi.SetupHTTPHandler(loginAPI, router, tokenSvc, logger, limiterFactory)
	tokenapi.SetupHTTPHandler(tokenAPI, router, tokenSvc, logger)
	totpapi.SetupHTTPHandler(totpAPI, router, tokenSvc, logger)
	passkeyapi.SetupHTTPHandler(passkeyAPI, router, tokenSvc, logger)
	contactapi.SetupHTTPHandler(contactAPI, router, tokenSvc, logger)
	credentialapi.SetupHTTPHandler(credentialAPI, router, tokenSvc, logger)
	trustapi.SetupHTTPHandler(trustAPI, router, tokenSvc, logger, limiterFactory)
	loginhistoryapi.SetupHTTPHandler(loginHistoryAPI, router, tokenSvc, logger, limiterFactory)

	server := http.Server{
		Addr: viper.GetString("api.http-addr"),
		Handler: handlers.CORS(
			handlers.AllowedOrigins(strings.Split(
				viper.GetString("api.allowed-origins"), ","),
			),
			handlers.AllowedHeaders([]string{
				"X-Requested-With",
				"Content-Type",
				"Authorization",
			}),
			handlers.AllowCredentials(),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"}),
		)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	var g run.Group
	{
		g.Add(func() error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case s := <-sig:
				return fmt.Errorf("signal received: %v", s)
			case <-ctx.Done():
				return ctx.Err()
			}
		}, func(err error) {
			logger.Log("message", "program was interrupted", "error", err, "source", "cmd/api")
			cancel()
		})
	}
	if msgd != nil {
		g.Add(func() error {
			logger.Log(
				"message", "message daemon is starting to check messages",
				"source", "cmd/api",
			)
			return msgd.Run(ctx)
		}, func(err error) {
			logger.Log(
				"message", "message daemon was shut down",
				"error", err,
				"source", "cmd/api",
			)
			cancel()
		})
	}
	{
		ticker := time.NewTicker(viper.GetDuration("token.cleanup-interval"))
		g.Add(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					n, err := tokenSvc.CleanupExpired(ctx)
					if err != nil {
						level.Error(logger).Log(
							"message", "failed to remove expired sessions",
							"error", err,
							"source", "cmd/api",
						)
						continue
					}
					level.Debug(logger).Log(
						"message", "expired sessions removed",
						"total", n,
						"source", "cmd/api",
					)
				}
			}
		}, func(err error) {
			ticker.Stop()
			cancel()
		})
	}
	{
		g.Add(func() error {
			logger.Log(
				"message", "API server is starting",
				"address", server.Addr,
				"source", "cmd/api",
			)
			return server.ListenAndServe()
		}, func(err error) {
			logger.Log(
				"message", "API server was interrupted",
				"error", err,
				"source", "cmd/api",
			)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			logger.Log(
				"message", "API server shut down",
				"error", server.Shutdown(shutdownCtx),
				"source", "cmd/api",
			)
		})
	}

	err = g.Run()
	logger.Log("message", "actors stopped", "error", err, "source", "cmd/api")
}
