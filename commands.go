package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/solita/awsutils/codec"
	"github.com/solita/awsutils/core"
	"github.com/solita/awsutils/fetch"
	"github.com/solita/awsutils/metrics"
	"github.com/solita/awsutils/queues"
	"github.com/solita/awsutils/sinks"
	"github.com/solita/awsutils/tables"
)

// app carries what the commands share. lock serialises every SQS and DynamoDB
// call made by the process.
type app struct {
	lock sync.Locker
}

func credentialFlags(fs *flag.FlagSet) *core.Credentials {
	creds := &core.Credentials{}
	fs.StringVar(&creds.AccessKey, "access-key", envOr("AWS_ACCESS_KEY_ID", ""), "AWS access key (default chain when empty)")
	fs.StringVar(&creds.SecretKey, "secret-key", envOr("AWS_SECRET_ACCESS_KEY", ""), "AWS secret key")
	fs.StringVar(&creds.SessionToken, "session-token", envOr("AWS_SESSION_TOKEN", ""), "AWS session token")
	fs.StringVar(&creds.Region, "region", envOr("AWS_REGION", ""), "AWS region")
	fs.StringVar(&creds.Endpoint, "endpoint", envOr("AWS_ENDPOINT_URL", ""), "Service base endpoint URL (for LocalStack and the like)")
	return creds
}

// newQueue also returns the CloudWatch collector when namespace is set, so the
// drain command can report through the same one.
func (a *app) newQueue(ctx context.Context, creds core.Credentials, cfg queues.Config, namespace, queueURL string) (*queues.SQS, metrics.Collector, aws.Config, error) {
	awsCfg, err := creds.AWSConfig(ctx)
	if err != nil {
		return nil, nil, aws.Config{}, err
	}
	slog.Debug("Using AWS credentials", "credentials", creds)

	var collector metrics.Collector
	if namespace != "" {
		slog.Info("Publishing queue metrics", "namespace", namespace)
		collector = metrics.NewCloudWatchCollector(cloudwatch.NewFromConfig(awsCfg), namespace, map[string]string{"Queue": queueURL})
	}
	return queues.NewSQS(awsCfg, cfg, a.lock, collector, slog.Default()), collector, awsCfg, nil
}

func (a *app) newTable(ctx context.Context, creds core.Credentials) (*tables.DynamoDB, error) {
	awsCfg, err := creds.AWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Using AWS credentials", "credentials", creds)
	return tables.NewDynamoDB(awsCfg, a.lock, slog.Default()), nil
}

func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if f := fs.Lookup(name); f == nil || f.Value.String() == "" {
			return fmt.Errorf("-%s is required", name)
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) runSend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	creds := credentialFlags(fs)
	queueURL := fs.String("queue", "", "Queue URL")
	body := fs.String("body", "", "Message body")
	groupID := fs.String("group", "", "Message group ID (FIFO queues)")
	namespace := fs.String("cloudwatch-namespace", "", "Publish send metrics to this CloudWatch namespace")
	_ = fs.Parse(args)
	if err := requireFlags(fs, "queue", "body"); err != nil {
		return err
	}

	queue, _, _, err := a.newQueue(ctx, *creds, queues.ConfigDefaults(), *namespace, *queueURL)
	if err != nil {
		return err
	}
	id, err := queue.Send(ctx, *queueURL, *body, *groupID)
	if err != nil {
		return err
	}
	slog.Info("Sent message", "queue", *queueURL, "id", id)
	return printJSON(map[string]string{"messageId": id})
}

func (a *app) runReceive(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	creds := credentialFlags(fs)
	queueURL := fs.String("queue", "", "Queue URL")
	maxMessages := fs.Int("max", 10, "Maximum number of messages (1-10)")
	wait := fs.Int("wait", 0, "Long polling wait in seconds (0-20)")
	_ = fs.Parse(args)
	if err := requireFlags(fs, "queue"); err != nil {
		return err
	}

	queue, _, _, err := a.newQueue(ctx, *creds, queues.Config{MaxMessages: int32(*maxMessages), WaitTimeSeconds: int32(*wait)}, "", *queueURL)
	if err != nil {
		return err
	}
	messages, err := queue.ReceiveBatch(ctx, *queueURL)
	if err != nil {
		return err
	}
	return printJSON(messages)
}

func (a *app) runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	creds := credentialFlags(fs)
	queueURL := fs.String("queue", "", "Queue URL")
	handle := fs.String("handle", "", "Receipt handle of the message")
	_ = fs.Parse(args)
	if err := requireFlags(fs, "queue", "handle"); err != nil {
		return err
	}

	queue, _, _, err := a.newQueue(ctx, *creds, queues.ConfigDefaults(), "", *queueURL)
	if err != nil {
		return err
	}
	if err := queue.Delete(ctx, *queueURL, *handle); err != nil {
		return err
	}
	slog.Info("Deleted message", "queue", *queueURL)
	return nil
}

func (a *app) runDrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("drain", flag.ExitOnError)
	creds := credentialFlags(fs)
	queueURL := fs.String("queue", "", "Queue URL")
	maxBatches := fs.Int("max-batches", 0, "Stop after this many non-empty batches (0 = until empty)")
	wait := fs.Int("wait", 0, "Long polling wait in seconds (0-20)")

	out := fs.String("out", "", "Save the drained messages as an XML document under this key instead of printing JSON (-out= uses DrainResult.xml)")
	localDir := fs.String("local-dir", ".", "Local directory to store the document to")
	s3Bucket := fs.String("s3-bucket", "", "S3 bucket to store the document to")
	s3Prefix := fs.String("s3-prefix", "", "S3 prefix inside the bucket")
	s3Endpoint := fs.String("s3-endpoint", "", "S3 base endpoint URL for non-AWS object storage (default -endpoint)")

	namespace := fs.String("cloudwatch-namespace", "", "Publish drain metrics to this CloudWatch namespace")
	_ = fs.Parse(args)
	if err := requireFlags(fs, "queue"); err != nil {
		return err
	}

	queue, collector, awsCfg, err := a.newQueue(ctx, *creds, queues.Config{WaitTimeSeconds: int32(*wait)}, *namespace, *queueURL)
	if err != nil {
		return err
	}

	// The drainer holds a.lock for the whole drain; the queue view must not take it again.
	view := queue.Unlocked()
	drainer := core.NewDrainer(view, view, a.lock, collector, slog.Default())
	drainer.MaxBatches = *maxBatches

	bodies, drainErr := drainer.Drain(ctx, *queueURL)
	switch {
	case errors.Is(drainErr, core.ErrDrainIncomplete):
		slog.Warn("Queue still had messages at the batch limit", "queue", *queueURL, "maxBatches", *maxBatches)
	case drainErr != nil:
		slog.Error("Drain failed", "queue", *queueURL, "drained", len(bodies), "error", drainErr)
	}
	slog.Info("Drained queue", "queue", *queueURL, "count", len(bodies))

	result := core.DrainResult{Queue: *queueURL, Messages: bodies}
	if !flagSet(fs, "out") {
		if err := printJSON(result); err != nil {
			return err
		}
		return drainErr
	}

	var store core.ObjectStore
	if *s3Bucket != "" {
		slog.Info("Storing document to S3", "bucket", *s3Bucket, "prefix", *s3Prefix, "endpoint", *s3Endpoint)
		store, err = sinks.NewS3(awsCfg, *s3Bucket, *s3Prefix, *s3Endpoint)
	} else {
		slog.Info("Storing document to local directory", "directory", *localDir)
		store, err = sinks.NewLocal(*localDir)
	}
	if err != nil {
		return errors.Join(drainErr, err)
	}

	xmlCodec := codec.NewXML(sinks.NewLogging(store, slog.Default()), slog.Default())
	if err := xmlCodec.Save(ctx, &result, *out); err != nil {
		return errors.Join(drainErr, err)
	}
	return drainErr
}

// flagSet reports whether the flag was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func tableFlags(fs *flag.FlagSet) (table, key, value *string) {
	table = fs.String("table", "", "DynamoDB table name")
	key = fs.String("key", "", "Primary key attribute name")
	value = fs.String("value", "", "Primary key value")
	return table, key, value
}

func (a *app) runPutItem(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("put-item", flag.ExitOnError)
	creds := credentialFlags(fs)
	table, key, value := tableFlags(fs)
	attrsJSON := fs.String("attrs", "{}", "Other attributes as a JSON object")
	_ = fs.Parse(args)
	if err := requireFlags(fs, "table", "key", "value"); err != nil {
		return err
	}

	attrs := map[string]any{}
	if err := json.Unmarshal([]byte(*attrsJSON), &attrs); err != nil {
		return fmt.Errorf("failed to parse -attrs: %w", err)
	}

	t, err := a.newTable(ctx, *creds)
	if err != nil {
		return err
	}
	if err := t.Put(ctx, *table, *key, *value, attrs); err != nil {
		return err
	}
	slog.Info("Stored item", "table", *table, "key", *key, "value", *value)
	return nil
}

func (a *app) runGetItem(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get-item", flag.ExitOnError)
	creds := credentialFlags(fs)
	table, key, value := tableFlags(fs)
	_ = fs.Parse(args)
	if err := requireFlags(fs, "table", "key", "value"); err != nil {
		return err
	}

	t, err := a.newTable(ctx, *creds)
	if err != nil {
		return err
	}
	item, ok, err := t.Get(ctx, *table, *key, *value)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Item not found", "table", *table, "key", *key, "value", *value)
		return printJSON(nil)
	}
	return printJSON(item)
}

func (a *app) runDeleteItem(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete-item", flag.ExitOnError)
	creds := credentialFlags(fs)
	table, key, value := tableFlags(fs)
	_ = fs.Parse(args)
	if err := requireFlags(fs, "table", "key", "value"); err != nil {
		return err
	}

	t, err := a.newTable(ctx, *creds)
	if err != nil {
		return err
	}
	if err := t.Delete(ctx, *table, *key, *value); err != nil {
		return err
	}
	slog.Info("Deleted item", "table", *table, "key", *key, "value", *value)
	return nil
}

type stripFlags struct {
	unicode, entities, tags *bool
}

func newStripFlags(fs *flag.FlagSet) stripFlags {
	return stripFlags{
		unicode:  fs.Bool("unicode", true, "Decode \\uXXXX and \\xNN escapes"),
		entities: fs.Bool("entities", true, "Decode HTML/XML entities"),
		tags:     fs.Bool("tags", true, "Strip tags"),
	}
}

func (s stripFlags) apply(text string) string {
	return fetch.StripMarkup(text, *s.unicode, *s.entities, *s.tags)
}

func (a *app) runFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	url := fs.String("url", "", "URL to download")
	strip := fs.Bool("strip", false, "Print plain text instead of markup")
	timeout := fs.Duration("timeout", fetch.DefaultConfig().Timeout, "Request timeout")
	sf := newStripFlags(fs)
	_ = fs.Parse(args)
	if err := requireFlags(fs, "url"); err != nil {
		return err
	}

	page, err := fetch.NewFetcher(fetch.Config{Timeout: *timeout}, slog.Default()).HTML(ctx, *url)
	if err != nil {
		return err
	}
	if *strip {
		page = sf.apply(page)
	}
	_, err = fmt.Fprintln(os.Stdout, page)
	return err
}

func (a *app) runStrip(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("strip", flag.ExitOnError)
	sf := newStripFlags(fs)
	_ = fs.Parse(args)

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, sf.apply(string(raw)))
	return err
}
