package main_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	servercmd "github.com/MarkoPoloResearchLab/portfolio/cmd/server"
	"github.com/MarkoPoloResearchLab/portfolio/internal/storage"
)

const (
	testEnvironmentKeySecretKey         = "SECRET_KEY"
	testEnvironmentKeyAdminUsername     = "ADMIN_USERNAME"
	testEnvironmentKeyAdminPassword     = "ADMIN_PASSWORD"
	testEnvironmentKeyAdminPasswordHash = "ADMIN_PASSWORD_HASH"
	testEnvironmentKeyDatabaseDSN       = "DB_DSN"
	testPlaceholderSecretKey            = "0123456789abcdef0123456789abcdef"
	testPlaceholderAdminUsername        = "Andile"
	testPlaceholderAdminPassword        = "2010"
	testMissingConfigurationMessage     = "missing required configuration"
	testFlagNameSecretKey               = "secret-key"
	testFlagNameAdminUsername           = "admin-username"
	testFlagNameAdminPassword           = "admin-password"
	testFlagIndicator                   = "--"
	testUsagePrefix                     = "Usage:"
)

type commandEnvironment struct {
	secretKey         string
	adminUsername     string
	adminPassword     string
	adminPasswordHash string
}

func (environment commandEnvironment) apply(t *testing.T) {
	t.Helper()
	t.Setenv(testEnvironmentKeySecretKey, environment.secretKey)
	t.Setenv(testEnvironmentKeyAdminUsername, environment.adminUsername)
	t.Setenv(testEnvironmentKeyAdminPassword, environment.adminPassword)
	t.Setenv(testEnvironmentKeyAdminPasswordHash, environment.adminPasswordHash)
}

func executeServerCommand(t *testing.T, opener servercmd.DatabaseOpener) (string, error) {
	t.Helper()
	application := servercmd.NewServerApplication().WithDatabaseOpener(opener)
	command, commandErr := application.Command()
	require.NoError(t, commandErr)

	commandOutput := &bytes.Buffer{}
	command.SetOut(commandOutput)
	command.SetErr(commandOutput)
	command.SetArgs([]string{})

	executionErr := command.Execute()
	return commandOutput.String(), executionErr
}

func failingOpener(t *testing.T) servercmd.DatabaseOpener {
	return func(configuration storage.Config) (*gorm.DB, error) {
		t.Fatalf("database opener invoked with %s", configuration.DataSourceName)
		return nil, nil
	}
}

func TestServerCommandMissingConfigurationShowsHelp(t *testing.T) {
	testCases := []struct {
		name                string
		environment         commandEnvironment
		expectedMissingFlag string
	}{
		{
			name: "missing secret key",
			environment: commandEnvironment{
				adminUsername: testPlaceholderAdminUsername,
				adminPassword: testPlaceholderAdminPassword,
			},
			expectedMissingFlag: testFlagNameSecretKey,
		},
		{
			name: "missing admin username",
			environment: commandEnvironment{
				secretKey:     testPlaceholderSecretKey,
				adminPassword: testPlaceholderAdminPassword,
			},
			expectedMissingFlag: testFlagNameAdminUsername,
		},
		{
			name: "missing admin password and hash",
			environment: commandEnvironment{
				secretKey:     testPlaceholderSecretKey,
				adminUsername: testPlaceholderAdminUsername,
			},
			expectedMissingFlag: testFlagNameAdminPassword,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			testCase.environment.apply(t)

			combinedOutput, executionErr := executeServerCommand(t, failingOpener(t))
			require.Error(t, executionErr)
			require.Contains(t, combinedOutput, testMissingConfigurationMessage)
			require.Contains(t, combinedOutput, testUsagePrefix)
			require.Contains(t, executionErr.Error(), testCase.expectedMissingFlag)
			require.Contains(t, combinedOutput, testFlagIndicator+testCase.expectedMissingFlag)
		})
	}
}

func TestServerCommandRejectsShortSecretKey(t *testing.T) {
	commandEnvironment{
		secretKey:     "too-short",
		adminUsername: testPlaceholderAdminUsername,
		adminPassword: testPlaceholderAdminPassword,
	}.apply(t)

	_, executionErr := executeServerCommand(t, failingOpener(t))
	require.ErrorIs(t, executionErr, servercmd.ErrSecretKeyTooShort)
}

func TestServerCommandPropagatesDatabaseOpenFailure(t *testing.T) {
	commandEnvironment{
		secretKey:     testPlaceholderSecretKey,
		adminUsername: testPlaceholderAdminUsername,
		adminPassword: testPlaceholderAdminPassword,
	}.apply(t)
	t.Setenv(testEnvironmentKeyDatabaseDSN, "portfolio-test.db")

	openFailure := errors.New("database unavailable")
	var receivedConfiguration storage.Config
	_, executionErr := executeServerCommand(t, func(configuration storage.Config) (*gorm.DB, error) {
		receivedConfiguration = configuration
		return nil, openFailure
	})

	require.ErrorIs(t, executionErr, openFailure)
	require.Equal(t, storage.DriverNameSQLite, receivedConfiguration.DriverName)
	require.Equal(t, "portfolio-test.db", receivedConfiguration.DataSourceName)
}

func TestServerCommandRejectsPositionalArguments(t *testing.T) {
	application := servercmd.NewServerApplication().WithDatabaseOpener(failingOpener(t))
	command, commandErr := application.Command()
	require.NoError(t, commandErr)
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"serve"})

	executionErr := command.Execute()
	require.Error(t, executionErr)
	require.True(t, strings.Contains(executionErr.Error(), "unexpected command arguments"))
}
