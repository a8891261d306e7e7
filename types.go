package weavefeed

import (
	"github.com/permaloom/weavefeed/internal/domain"
)

// Tag is a name/value pair attached to a ledger transaction.
type Tag struct {
	Name  string
	Value string
}

// Post is one hydrated feed entry. When Err is non-nil the payload could not
// be fetched or decoded and Content is empty; the reference fields are still
// populated from the index.
type Post struct {
	ID             string
	Owner          string
	Tags           []Tag
	SizeBytes      int64
	BlockHeight    int64 // 0 while the transaction is pending
	BlockTimestamp int64 // unix seconds, 0 while pending
	Confirmed      bool
	Content        string
	Err            error
}

// Page is one page of feed results. An empty NextCursor means the feed is
// exhausted.
type Page struct {
	Posts      []Post
	NextCursor string
}

// TxMeta is the full transaction envelope: signature, fee and transfer
// details on top of what the feed index returns.
type TxMeta struct {
	ID        string
	Owner     string
	Signature string
	DataSize  int64
	Quantity  string
	Reward    string
	Tags      []Tag
}

func fromInternalTags(tags []domain.Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]Tag, len(tags))
	for i, t := range tags {
		out[i] = Tag{Name: t.Name, Value: t.Value}
	}
	return out
}

func fromInternalPost(p domain.HydratedPost) Post {
	ref := p.Ref()
	return Post{
		ID:             ref.ID(),
		Owner:          ref.Owner(),
		Tags:           fromInternalTags(ref.Tags()),
		SizeBytes:      ref.SizeBytes(),
		BlockHeight:    ref.BlockHeight(),
		BlockTimestamp: ref.BlockTimestamp(),
		Confirmed:      ref.Confirmed(),
		Content:        p.Content(),
		Err:            p.Err(),
	}
}

func fromInternalPage(page domain.ResultPage) Page {
	posts := make([]Post, len(page.Items))
	for i, p := range page.Items {
		posts[i] = fromInternalPost(p)
	}
	return Page{Posts: posts, NextCursor: page.NextCursor}
}

func fromInternalMeta(m domain.TxMeta) TxMeta {
	return TxMeta{
		ID:        m.ID,
		Owner:     m.Owner,
		Signature: m.Signature,
		DataSize:  m.DataSize,
		Quantity:  m.Quantity,
		Reward:    m.Reward,
		Tags:      fromInternalTags(m.Tags),
	}
}
