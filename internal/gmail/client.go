package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gmcli/internal/instrumentation"
)

// userID addresses the authenticated user's own mailbox.
const userID = "me"

// Client wraps the Gmail Users service for the authenticated mailbox.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	labels  *LabelResolver

	mu      sync.Mutex
	account string // cached address from users.getProfile
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	metrics        *instrumentation.Metrics
	logger         *slog.Logger
	serviceOptions []option.ClientOption
}

// WithMetrics records every API call on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithServiceOptions passes options to the underlying Gmail service.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(o *clientOptions) { o.serviceOptions = append(o.serviceOptions, opts...) }
}

// NewClient creates a Gmail client that authenticates through httpClient.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	svcOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, o.serviceOptions...)
	svc, err := gmail.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	c := &Client{
		svc:     svc.Users,
		metrics: o.metrics,
		logger:  o.logger,
	}
	c.labels = NewLabelResolver(c)
	return c, nil
}

// Labels returns the client's label resolver.
func (c *Client) Labels() *LabelResolver {
	return c.labels
}

// observe runs fn as one instrumented Gmail API call.
func (c *Client) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return instrumentation.ObserveGoogleAPI(ctx, c.metrics, instrumentation.ServiceGmail, operation, fn)
}

// Account returns the mailbox address, fetched once per client.
func (c *Client) Account(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.account != "" {
		return c.account, nil
	}

	var prof *gmail.Profile
	err := c.observe(ctx, instrumentation.OperationProfile, func(ctx context.Context) error {
		var err error
		prof, err = c.svc.GetProfile(userID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get account profile: %w", err)
	}
	c.account = prof.EmailAddress
	return c.account, nil
}

// GetMessage retrieves a message in full format.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(userID, messageID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// ListLabels fetches every label of the mailbox.
func (c *Client) ListLabels(ctx context.Context) ([]*gmail.Label, error) {
	var res *gmail.ListLabelsResponse
	err := c.observe(ctx, instrumentation.OperationLabels, func(ctx context.Context) error {
		var err error
		res, err = c.svc.Labels.List(userID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return res.Labels, nil
}

func (c *Client) sendRaw(ctx context.Context, raw, threadID string) (*gmail.Message, error) {
	var sent *gmail.Message
	err := c.observe(ctx, instrumentation.OperationSend, func(ctx context.Context) error {
		var err error
		sent, err = c.svc.Messages.Send(userID, &gmail.Message{Raw: raw, ThreadId: threadID}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	return sent, nil
}

// CreateDraft saves an encoded message as a draft, optionally attached to
// an existing thread.
func (c *Client) CreateDraft(ctx context.Context, raw, threadID string) (*gmail.Draft, error) {
	draft := &gmail.Draft{Message: &gmail.Message{Raw: raw, ThreadId: threadID}}
	var created *gmail.Draft
	err := c.observe(ctx, instrumentation.OperationDraft, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Drafts.Create(userID, draft).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return created, nil
}
