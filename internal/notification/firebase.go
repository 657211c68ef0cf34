package notification

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// findAPIDir walks up from the working directory to the directory holding config/env.
func findAPIDir() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", fmt.Errorf("config/env not found above %s", currentDir)
		}
		currentDir = parentDir
	}
}

// resolveCredentialsPath makes a relative credentials path relative to the API directory.
func resolveCredentialsPath(credentialsPath string) (string, error) {
	if credentialsPath == "" || filepath.IsAbs(credentialsPath) {
		return credentialsPath, nil
	}
	apiDir, err := findAPIDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(apiDir, credentialsPath), nil
}

// NewMessagingClient initialises the Firebase Admin SDK and returns its Cloud Messaging client.
// An empty credentialsPath falls back to Application Default Credentials.
func NewMessagingClient(ctx context.Context, projectID, credentialsPath string) (*messaging.Client, error) {
	path, err := resolveCredentialsPath(credentialsPath)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("firebase credentials file not found: %s", path)
		}
		opts = append(opts, option.WithCredentialsFile(path))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase Messaging client: %w", err)
	}
	return client, nil
}
