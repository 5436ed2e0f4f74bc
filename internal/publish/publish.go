// Package publish uploads submission resources to remote storage and records
// the direct link for each one.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"etdbridge/internal/bundle"
	"etdbridge/internal/logging"
	"etdbridge/internal/services"
	"etdbridge/internal/storage"
	"etdbridge/internal/textutil"
)

const stage = "publishing"

// Target identifies where a submission's files are published.
type Target struct {
	Destination string
	Submission  string
}

// Publication maps resource names to direct links for one submission. It is
// created by Publisher.Publish and never shared between submissions.
type Publication struct {
	RemoteDir string
	links     map[string]string
}

// NewPublication returns an empty publication rooted at remoteDir.
func NewPublication(remoteDir string) *Publication {
	return &Publication{RemoteDir: remoteDir, links: map[string]string{}}
}

// Add records the link for a resource name.
func (p *Publication) Add(name, link string) {
	p.links[textutil.NormalizeName(name)] = link
}

// Link returns the direct link for a resource name. The name is normalized
// first, so relative paths and decomposed Unicode forms resolve.
func (p *Publication) Link(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	link, ok := p.links[textutil.NormalizeName(name)]
	return link, ok
}

// Names returns the published resource names in sorted order.
func (p *Publication) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.links))
	for name := range p.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of published resources.
func (p *Publication) Len() int {
	if p == nil {
		return 0
	}
	return len(p.links)
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithVerify lists the remote folder after uploading and requires every
// resource to be present.
func WithVerify(verify bool) Option {
	return func(p *Publisher) { p.verify = verify }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logging.NewComponentLogger(logger, "publish") }
}

// Publisher uploads resources through a storage backend.
type Publisher struct {
	backend    storage.Backend
	remoteRoot string
	verify     bool
	logger     *slog.Logger
}

// New constructs a Publisher writing below remoteRoot.
func New(backend storage.Backend, remoteRoot string, opts ...Option) *Publisher {
	p := &Publisher{backend: backend, remoteRoot: strings.TrimRight(remoteRoot, "/"), logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RemoteDir returns <remote_root>/<destination>/<submission>.
func (p *Publisher) RemoteDir(target Target) string {
	return storage.Key(p.remoteRoot, target.Destination, target.Submission)
}

// Publish uploads every resource and shares it. The first failure aborts
// with a PublishError; files already uploaded stay in place.
func (p *Publisher) Publish(ctx context.Context, target Target, resources []bundle.Resource) (*Publication, error) {
	dir := p.RemoteDir(target)
	pub := NewPublication(dir)
	logger := logging.WithContext(ctx, p.logger)

	for _, resource := range resources {
		key := storage.Key(dir, resource.Name)
		if err := p.backend.Upload(ctx, resource.Path, key); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, services.Fail(services.ErrPublish, stage, "Upload",
				fmt.Sprintf("upload %s", resource.Name), err).
				WithPath(resource.Path).
				WithHint("check storage credentials and connectivity")
		}
		raw, err := p.backend.Share(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, services.Fail(services.ErrPublish, stage, "Share",
				fmt.Sprintf("share %s", resource.Name), err).WithPath(key)
		}
		if strings.TrimSpace(raw) == "" {
			return nil, services.Fail(services.ErrPublish, stage, "Share",
				fmt.Sprintf("empty share link for %s", resource.Name), nil).WithPath(key)
		}
		link := storage.NormalizeLink(p.backend, strings.TrimSpace(raw))
		pub.Add(resource.Name, link)
		logger.Debug("resource published",
			logging.String(logging.FieldEventType, "resource_published"),
			logging.String("resource", resource.Name),
			logging.String("remote_key", key),
		)
	}

	if p.verify && len(resources) > 0 {
		if err := p.verifyUploaded(ctx, dir, resources); err != nil {
			return nil, err
		}
	}
	logger.Info("resources published",
		logging.String(logging.FieldEventType, "resources_published"),
		logging.Int("resources", pub.Len()),
		logging.String("remote_dir", dir),
	)
	return pub, nil
}

func (p *Publisher) verifyUploaded(ctx context.Context, dir string, resources []bundle.Resource) error {
	entries, err := p.backend.List(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Fail(services.ErrPublish, stage, "Verify", "list remote folder", err).WithPath(dir)
	}
	files := storage.Files(entries)
	var missing []string
	for _, resource := range resources {
		if _, ok := files[resource.Name]; !ok {
			missing = append(missing, resource.Name)
		}
	}
	if len(missing) > 0 {
		return services.Fail(services.ErrPublish, stage, "Verify",
			"remote folder is missing "+strings.Join(missing, ", "), nil).WithPath(dir)
	}
	return nil
}

// PublishRecord uploads the final record next to the submission's
// resources and returns its remote key.
func (p *Publisher) PublishRecord(ctx context.Context, target Target, recordPath string) (string, error) {
	key := storage.Key(p.RemoteDir(target), filepath.Base(recordPath))
	if err := p.backend.Upload(ctx, recordPath, key); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Fail(services.ErrPublish, stage, "UploadRecord", "upload final record", err).
			WithPath(recordPath)
	}
	return key, nil
}
