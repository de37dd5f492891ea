package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/portfolio/internal/auth"
	"github.com/MarkoPoloResearchLab/portfolio/internal/content"
	"github.com/MarkoPoloResearchLab/portfolio/internal/httpapi"
	"github.com/MarkoPoloResearchLab/portfolio/internal/inbox"
	"github.com/MarkoPoloResearchLab/portfolio/internal/storage"
)

const (
	commandUseName                = "server"
	commandShortDescription       = "Run the portfolio server"
	commandLongDescription        = "Launch the portfolio website with its feedback form and admin dashboard"
	missingConfigurationMessage   = "missing required configuration"
	loggerCreationErrorMessage    = "logger"
	logEventListening             = "listening"
	logFieldAddress               = "addr"
	loggerContextOpenDatabase     = "open_db"
	loggerContextAutoMigrate      = "migrate"
	loggerContextServer           = "server"
	readHeaderTimeoutSeconds      = 5
	unexpectedArgumentsMessage    = "unexpected command arguments"
	commandInitializationFailure  = "failed to configure command"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
	minimumSecretKeyLength        = 32

	flagNamePort               = "port"
	flagNameDatabaseDriver     = "db-driver"
	flagNameDatabaseDSN        = "db-dsn"
	flagNameSecretKey          = "secret-key"
	flagNameAdminUsername      = "admin-username"
	flagNameAdminPassword      = "admin-password"
	flagNameAdminPasswordHash  = "admin-password-hash"
	flagNameSessionTTL         = "session-ttl"
	flagNameCookieSecure       = "cookie-secure"
	flagNamePublicBaseURL      = "public-base-url"
	flagNameContentFile        = "content-file"
	flagNameFeedbackRateLimit  = "feedback-rate-limit"
	flagNameProtectUnreadCount = "protect-unread-count"

	environmentKeyPort               = "PORT"
	environmentKeyDatabaseDriver     = "DB_DRIVER"
	environmentKeyDatabaseDSN        = "DB_DSN"
	environmentKeySecretKey          = "SECRET_KEY"
	environmentKeyAdminUsername      = "ADMIN_USERNAME"
	environmentKeyAdminPassword      = "ADMIN_PASSWORD"
	environmentKeyAdminPasswordHash  = "ADMIN_PASSWORD_HASH"
	environmentKeySessionTTL         = "SESSION_TTL"
	environmentKeyCookieSecure       = "COOKIE_SECURE"
	environmentKeyPublicBaseURL      = "PUBLIC_BASE_URL"
	environmentKeyContentFile        = "CONTENT_FILE"
	environmentKeyFeedbackRateLimit  = "FEEDBACK_RATE_LIMIT"
	environmentKeyProtectUnreadCount = "PROTECT_UNREAD_COUNT"

	defaultPort              = 5000
	defaultDatabaseDSN       = "messages.db"
	defaultSessionTTL        = 12 * time.Hour
	defaultPublicBaseURL     = "http://localhost:5000"
	defaultFeedbackRateLimit = 6
)

// ErrSecretKeyTooShort indicates the session signing secret is shorter than allowed.
var ErrSecretKeyTooShort = fmt.Errorf("secret key must be at least %d bytes", minimumSecretKeyLength)

// flagEnvironmentBindings pairs every flag with the environment key that overrides it.
var flagEnvironmentBindings = []struct {
	flagName       string
	environmentKey string
}{
	{flagName: flagNamePort, environmentKey: environmentKeyPort},
	{flagName: flagNameDatabaseDriver, environmentKey: environmentKeyDatabaseDriver},
	{flagName: flagNameDatabaseDSN, environmentKey: environmentKeyDatabaseDSN},
	{flagName: flagNameSecretKey, environmentKey: environmentKeySecretKey},
	{flagName: flagNameAdminUsername, environmentKey: environmentKeyAdminUsername},
	{flagName: flagNameAdminPassword, environmentKey: environmentKeyAdminPassword},
	{flagName: flagNameAdminPasswordHash, environmentKey: environmentKeyAdminPasswordHash},
	{flagName: flagNameSessionTTL, environmentKey: environmentKeySessionTTL},
	{flagName: flagNameCookieSecure, environmentKey: environmentKeyCookieSecure},
	{flagName: flagNamePublicBaseURL, environmentKey: environmentKeyPublicBaseURL},
	{flagName: flagNameContentFile, environmentKey: environmentKeyContentFile},
	{flagName: flagNameFeedbackRateLimit, environmentKey: environmentKeyFeedbackRateLimit},
	{flagName: flagNameProtectUnreadCount, environmentKey: environmentKeyProtectUnreadCount},
}

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	Port               int
	Database           storage.Config
	SecretKey          string
	AdminUsername      string
	AdminPassword      string
	AdminPasswordHash  string
	SessionTTL         time.Duration
	CookieSecure       bool
	PublicBaseURL      string
	ContentFile        string
	FeedbackRateLimit  int
	ProtectUnreadCount bool
}

// DatabaseOpener opens a database connection using the provided configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.Int(flagNamePort, defaultPort, "port for the HTTP server to listen on")
	commandFlags.String(flagNameDatabaseDriver, storage.DriverNameSQLite, "database driver")
	commandFlags.String(flagNameDatabaseDSN, defaultDatabaseDSN, "database data source name")
	commandFlags.String(flagNameSecretKey, "", "secret used to sign sessions and admin tokens (at least 32 bytes)")
	commandFlags.String(flagNameAdminUsername, "", "administrator username")
	commandFlags.String(flagNameAdminPassword, "", "administrator password")
	commandFlags.String(flagNameAdminPasswordHash, "", "bcrypt hash of the administrator password, preferred over the plain password")
	commandFlags.Duration(flagNameSessionTTL, defaultSessionTTL, "lifetime of admin sessions")
	commandFlags.Bool(flagNameCookieSecure, false, "mark session cookies as HTTPS only")
	commandFlags.String(flagNamePublicBaseURL, defaultPublicBaseURL, "public base URL used in the sitemap")
	commandFlags.String(flagNameContentFile, "", "YAML file overriding the built-in page content")
	commandFlags.Int(flagNameFeedbackRateLimit, defaultFeedbackRateLimit, "feedback submissions allowed per client IP every 30 seconds (0 disables)")
	commandFlags.Bool(flagNameProtectUnreadCount, false, "require an admin session for the unread counter")

	for _, binding := range flagEnvironmentBindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) loadConfiguration() ServerConfig {
	loader := application.configurationLoader
	return ServerConfig{
		Port: loader.GetInt(environmentKeyPort),
		Database: storage.Config{
			DriverName:     strings.TrimSpace(loader.GetString(environmentKeyDatabaseDriver)),
			DataSourceName: strings.TrimSpace(loader.GetString(environmentKeyDatabaseDSN)),
		},
		SecretKey:          loader.GetString(environmentKeySecretKey),
		AdminUsername:      strings.TrimSpace(loader.GetString(environmentKeyAdminUsername)),
		AdminPassword:      strings.TrimSpace(loader.GetString(environmentKeyAdminPassword)),
		AdminPasswordHash:  strings.TrimSpace(loader.GetString(environmentKeyAdminPasswordHash)),
		SessionTTL:         loader.GetDuration(environmentKeySessionTTL),
		CookieSecure:       loader.GetBool(environmentKeyCookieSecure),
		PublicBaseURL:      strings.TrimSpace(loader.GetString(environmentKeyPublicBaseURL)),
		ContentFile:        strings.TrimSpace(loader.GetString(environmentKeyContentFile)),
		FeedbackRateLimit:  loader.GetInt(environmentKeyFeedbackRateLimit),
		ProtectUnreadCount: loader.GetBool(environmentKeyProtectUnreadCount),
	}
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := application.loadConfiguration()
	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(serverConfig.Database)
	if databaseErr != nil {
		logger.Error(loggerContextOpenDatabase, zap.Error(databaseErr))
		return databaseErr
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Error(loggerContextAutoMigrate, zap.Error(migrateErr))
		return migrateErr
	}

	router, routerErr := buildRouter(serverConfig, database, logger)
	if routerErr != nil {
		return routerErr
	}

	address := ":" + strconv.Itoa(serverConfig.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, address))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Error(loggerContextServer, zap.Error(serveErr))
		return serveErr
	}

	return nil
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.SecretKey == "" {
		missingParameters = append(missingParameters, flagNameSecretKey)
	}

	if configuration.AdminUsername == "" {
		missingParameters = append(missingParameters, flagNameAdminUsername)
	}

	if configuration.AdminPassword == "" && configuration.AdminPasswordHash == "" {
		missingParameters = append(missingParameters, flagNameAdminPassword)
	}

	if len(missingParameters) > 0 {
		return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
	}

	if len(configuration.SecretKey) < minimumSecretKeyLength {
		return ErrSecretKeyTooShort
	}

	return nil
}

// buildRouter wires the stores, authentication and handlers into a gin engine.
func buildRouter(serverConfig ServerConfig, database *gorm.DB, logger *zap.Logger) (*gin.Engine, error) {
	credentials, credentialsErr := auth.NewCredentials(serverConfig.AdminUsername, serverConfig.AdminPassword, serverConfig.AdminPasswordHash)
	if credentialsErr != nil {
		return nil, credentialsErr
	}

	site, siteErr := content.Load(serverConfig.ContentFile)
	if siteErr != nil {
		return nil, siteErr
	}

	secret := []byte(serverConfig.SecretKey)
	authenticator := auth.NewAuthenticator(credentials, auth.NewTokenIssuer(secret, serverConfig.SessionTTL))
	sessionManager := httpapi.NewSessionManager(httpapi.NewCookieStore(secret, serverConfig.SessionTTL, serverConfig.CookieSecure), logger)

	messageStore := storage.NewMessageStore(database)
	unreadCounter := inbox.NewUnreadCounter(messageStore)
	renderer := httpapi.NewPageRenderer(logger, site, sessionManager, authenticator)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))

	registerPageRoutes(
		router,
		httpapi.NewPageHandlers(renderer),
		httpapi.NewFeedbackHandlers(logger, inbox.NewIntake(messageStore, time.Now), sessionManager, serverConfig.FeedbackRateLimit),
		httpapi.NewSitemapHandlers(serverConfig.PublicBaseURL),
		httpapi.NewHealthHandlers(logger, databasePinger(database)),
	)
	registerAdminRoutes(
		router,
		sessionManager,
		authenticator,
		httpapi.NewAdminHandlers(logger, renderer, sessionManager, authenticator, inbox.NewModerator(messageStore, authenticator), unreadCounter),
	)

	var unreadGuard gin.HandlerFunc
	if serverConfig.ProtectUnreadCount {
		unreadGuard = httpapi.RequireAdminJSON(sessionManager, authenticator)
	}
	registerAPIRoutes(router, httpapi.NewUnreadHandlers(logger, unreadCounter), unreadGuard)

	return router, nil
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
