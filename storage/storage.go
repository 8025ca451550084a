// Package storage uploads console file attachments (product images and the
// like) to Firebase Storage.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// Uploader writes files into the configured Firebase Storage bucket.
type Uploader struct {
	app    *firebase.App
	bucket string
}

// NewFromEnv initializes the Firebase app from whichever credential form the
// environment provides: FIREBASE_SERVICE_ACCOUNT_JSON, then the base64
// variant, then the raw FIREBASE_SERVICE_ACCOUNT value. The bucket name
// comes from FIREBASE_STORAGE_BUCKET.
func NewFromEnv(ctx context.Context) (*Uploader, error) {
	bucket := os.Getenv("FIREBASE_STORAGE_BUCKET")
	if bucket == "" {
		return nil, errors.New("FIREBASE_STORAGE_BUCKET not set")
	}

	var opts []option.ClientOption
	if creds := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); creds != "" {
		log.Println("Using JSON Firebase credentials from environment")
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else if encoded := os.Getenv("FIREBASE_SERVICE_ACCOUNT_BASE64"); encoded != "" {
		log.Println("Using base64-encoded Firebase credentials from environment")
		credBytes, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 Firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credBytes))
	} else if creds := os.Getenv("FIREBASE_SERVICE_ACCOUNT"); creds != "" {
		log.Println("Using Firebase credentials from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else {
		log.Println("No specific Firebase credentials found, using application default credentials")
	}

	config := &firebase.Config{StorageBucket: bucket}
	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing Firebase app: %w", err)
	}

	return &Uploader{app: app, bucket: bucket}, nil
}

// pathFor prefixes the object path by media kind, mirroring how the console
// has always laid the bucket out.
func pathFor(name, contentType string, ts time.Time) string {
	dir := "files"
	if strings.HasPrefix(contentType, "image/") {
		dir = "images"
	} else if strings.HasPrefix(contentType, "video/") {
		dir = "videos"
	}
	return fmt.Sprintf("%s/%d_%s", dir, ts.UnixMilli(), name)
}

// Upload stores the file under a timestamped name and returns its public
// download URL.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	return u.write(ctx, pathFor(name, contentType, time.Now()), contentType, r)
}

// Replace overwrites an already-uploaded file in place, keeping its name so
// existing references stay valid.
func (u *Uploader) Replace(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	dir := "files"
	if strings.HasPrefix(contentType, "image/") {
		dir = "images"
	} else if strings.HasPrefix(contentType, "video/") {
		dir = "videos"
	}
	return u.write(ctx, dir+"/"+name, contentType, r)
}

func (u *Uploader) write(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	client, err := u.app.Storage(ctx)
	if err != nil {
		return "", fmt.Errorf("getting storage client: %w", err)
	}
	bucket, err := client.Bucket(u.bucket)
	if err != nil {
		return "", fmt.Errorf("resolving bucket %s: %w", u.bucket, err)
	}

	w := bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finishing upload of %s: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, path), nil
}

// FileNameFromURL extracts the stored object name from a download URL.
func FileNameFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(parsed.Path, "/")
	return parts[len(parts)-1]
}
