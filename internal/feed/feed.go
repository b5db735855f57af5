package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/gorilla/feeds"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const Name = "feed.xml"

type Client interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
}

type Generator struct {
	client  Client
	bucket  string
	siteURL string
	now     func() time.Time
}

func New(client Client, bucket, siteURL string) *Generator {
	return &Generator{client: client, bucket: bucket, siteURL: strings.TrimSuffix(siteURL, "/"), now: time.Now}
}

func NewS3Generator(i *do.Injector) (*Generator, error) {
	client := do.MustInvoke[*s3.Client](i)
	bucket := do.MustInvokeNamed[string](i, "bucket")
	siteURL := do.MustInvokeNamed[string](i, "site_url")
	return New(client, bucket, siteURL), nil
}

func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed").With("bucket", g.bucket)
	log.Info("generating rss feed")

	feed := feeds.Feed{
		Title:       "imagegen",
		Description: "Generated images",
		Link:        &feeds.Link{Href: g.siteURL + "/"},
		Updated:     g.now(),
	}

	pager := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
	})

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			_ = group.Wait()
			return nil, err
		}

		objs := lo.Filter(page.Contents, func(o s3types.Object, _ int) bool {
			key := aws.ToString(o.Key)
			return strings.HasSuffix(key, ".png") && !strings.HasPrefix(key, "latest")
		})

		for _, obj := range objs {
			key := obj.Key
			group.Go(func() error {
				out, err := g.client.HeadObject(gctx, &s3.HeadObjectInput{
					Bucket: aws.String(g.bucket),
					Key:    key,
				})
				if err != nil {
					return fmt.Errorf("failed to head %s: %w", aws.ToString(key), err)
				}

				meta := out.Metadata
				item := &feeds.Item{
					Title:       meta["prompt"],
					Description: meta["negative-prompt"],
					Link:        &feeds.Link{Href: fmt.Sprintf("%s/%s.html", g.siteURL, strings.TrimSuffix(aws.ToString(key), ".png"))},
					Updated:     aws.ToTime(out.LastModified),
				}
				mu.Lock()
				feed.Add(item)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Updated.After(b.Updated)
	})
	rss, err := feed.ToRss()
	return []byte(rss), err
}
