package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

// ObjectStore is the slice of the wish bucket the pipeline needs. Bytes never
// pass through the service: clients PUT and GET directly with signed URLs.
type ObjectStore interface {
	SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

type BucketConfig struct {
	Name          string
	Storage       ObjectStorageConfig
	PublicBaseURL string
	Credentials   string

	// Explicit signer identity. When empty the client detects one from the
	// ambient service account.
	SignerEmail      string
	SignerPrivateKey string
}

type bucketStore struct {
	log           *logger.Logger
	client        *storage.Client
	bucket        string
	storageMode   ObjectStorageMode
	emulatorHost  string
	publicBaseURL string
	signerEmail   string
	signerKey     []byte
	now           func() time.Time
}

func NewObjectStore(log *logger.Logger, cfg BucketConfig) (ObjectStore, error) {
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("missing env var WISH_GCS_BUCKET_NAME")
	}
	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg.PublicBaseURL, cfg.Storage)
	if err != nil {
		return nil, err
	}

	client, err := newStorageClientForMode(context.Background(), cfg.Storage, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog := log.With("service", "ObjectStore")
	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"bucket", name,
		"explicit_signer", strings.TrimSpace(cfg.SignerEmail) != "",
	)

	return &bucketStore{
		log:           serviceLog,
		client:        client,
		bucket:        name,
		storageMode:   cfg.Storage.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"),
		publicBaseURL: publicBaseURL,
		signerEmail:   strings.TrimSpace(cfg.SignerEmail),
		signerKey:     normalizePrivateKey(cfg.SignerPrivateKey),
		now:           time.Now,
	}, nil
}

func newStorageClientForMode(ctx context.Context, storageCfg ObjectStorageConfig, creds string) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(creds)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(storageCfg.Mode),
		}
	}
}

func resolvePublicBaseURL(raw string, storageCfg ObjectStorageConfig) (baseURL string, source string, err error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf(
				"invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443",
				raw,
			)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if storageCfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

// Private keys pasted into env files usually carry literal "\n".
func normalizePrivateKey(raw string) []byte {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return []byte(strings.ReplaceAll(raw, `\n`, "\n"))
}

func (bs *bucketStore) SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	key = cleanKey(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if bs.isEmulatorMode() {
		return bs.emulatorUploadURL(key), nil
	}
	opts := bs.signOptions(http.MethodPut, ttl)
	if ct := strings.TrimSpace(contentType); ct != "" {
		opts.ContentType = ct
	}
	u, err := bs.client.Bucket(bs.bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign PUT %q: %w", key, err)
	}
	return u, nil
}

func (bs *bucketStore) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key = cleanKey(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if bs.isEmulatorMode() {
		return bs.emulatorMediaURL(key), nil
	}
	u, err := bs.client.Bucket(bs.bucket).SignedURL(key, bs.signOptions(http.MethodGet, ttl))
	if err != nil {
		return "", fmt.Errorf("sign GET %q: %w", key, err)
	}
	return u, nil
}

func (bs *bucketStore) signOptions(method string, ttl time.Duration) *storage.SignedURLOptions {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  method,
		Expires: bs.now().Add(ttl),
	}
	if bs.signerEmail != "" && len(bs.signerKey) > 0 {
		opts.GoogleAccessID = bs.signerEmail
		opts.PrivateKey = bs.signerKey
	}
	return opts
}

func (bs *bucketStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.client.Bucket(bs.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

// DeletePrefix removes every object under prefix and reports how many were
// deleted. Objects that vanished concurrently are not errors.
func (bs *bucketStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if strings.TrimSpace(prefix) == "" {
		return 0, fmt.Errorf("refusing to delete empty prefix")
	}
	keys, err := bs.ListKeys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var errs []error
	deleted := 0
	for _, k := range keys {
		dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := bs.client.Bucket(bs.bucket).Object(k).Delete(dctx)
		cancel()
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, storage.ErrObjectNotExist):
		default:
			errs = append(errs, fmt.Errorf("delete %q: %w", k, err))
		}
	}
	return deleted, errors.Join(errs...)
}

func (bs *bucketStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := bs.client.Bucket(bs.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %q: %w", bs.bucket, err)
	}
	return nil
}

func (bs *bucketStore) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}

func (bs *bucketStore) isEmulatorMode() bool {
	return bs != nil && IsEmulatorObjectStorageMode(bs.storageMode) && bs.emulatorBase() != ""
}

func (bs *bucketStore) emulatorBase() string {
	base := strings.TrimRight(strings.TrimSpace(bs.publicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(bs.emulatorHost), "/")
	}
	return base
}

// The emulator does not verify signatures; it accepts a plain PUT on the
// bucket/object path.
func (bs *bucketStore) emulatorUploadURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", bs.emulatorBase(), url.PathEscape(bs.bucket), escapeKeyPath(key))
}

func (bs *bucketStore) emulatorMediaURL(key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		bs.emulatorBase(),
		url.PathEscape(bs.bucket),
		url.PathEscape(key),
	)
}

func escapeKeyPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
