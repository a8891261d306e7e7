package domain

// HydratedPost is the outcome of hydrating one transaction reference.
// Exactly one of content / err is set once hydration was attempted.
type HydratedPost struct {
	ref     TxReference
	content string
	err     error
}

// NewPost creates a successfully hydrated post.
func NewPost(ref TxReference, content string) HydratedPost {
	return HydratedPost{ref: ref, content: content}
}

// NewFailedPost creates a post whose hydration failed.
func NewFailedPost(ref TxReference, err error) HydratedPost {
	return HydratedPost{ref: ref, err: err}
}

// Ref returns the index reference the post was hydrated from.
func (p HydratedPost) Ref() TxReference { return p.ref }

// Content returns the decoded payload text ("" when hydration failed).
func (p HydratedPost) Content() string { return p.content }

// Err returns the hydration error, if any.
func (p HydratedPost) Err() error { return p.err }

// Hydrated reports whether the payload was fetched and decoded.
func (p HydratedPost) Hydrated() bool { return p.err == nil }

// ResultPage is a fully assembled page: hydrated posts in index order plus the
// cursor for the following page ("" means no further pages).
type ResultPage struct {
	Items      []HydratedPost
	NextCursor string
}

// TxMeta is the transaction metadata envelope served by the gateway's /tx
// endpoint. Not used for hydration; exposed for consumers that need signature
// or fee details.
type TxMeta struct {
	ID        string
	Owner     string
	Signature string
	DataSize  int64
	Quantity  string
	Reward    string
	Tags      []Tag
}
