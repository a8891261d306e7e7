package gateway

import (
	"strconv"

	"github.com/permaloom/weavefeed/internal/domain"
)

// graphqlRequest is the POST /graphql body.
type graphqlRequest struct {
	Query string `json:"query"`
}

// indexEnvelope mirrors the gateway's GraphQL response shape.
type indexEnvelope struct {
	Data   *indexData `json:"data"`
	Errors []gqlError `json:"errors,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type indexData struct {
	Transactions struct {
		PageInfo pageInfoDTO `json:"pageInfo"`
		Edges    []edgeDTO   `json:"edges"`
	} `json:"transactions"`
}

type pageInfoDTO struct {
	HasNextPage bool `json:"hasNextPage"`
}

type edgeDTO struct {
	Cursor string  `json:"cursor"`
	Node   nodeDTO `json:"node"`
}

type nodeDTO struct {
	ID    string    `json:"id"`
	Owner ownerDTO  `json:"owner"`
	Tags  []tagDTO  `json:"tags"`
	Data  dataDTO   `json:"data"`
	Block *blockDTO `json:"block"`
}

type ownerDTO struct {
	Address string `json:"address"`
}

type tagDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type dataDTO struct {
	Size string `json:"size"` // the gateway serializes byte counts as decimal strings
	Type string `json:"type"`
}

type blockDTO struct {
	Height    int64 `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// toRef converts one edge node into a domain reference. Nodes without a
// block are mempool transactions and come back as pending references.
func (n nodeDTO) toRef() domain.TxReference {
	tags := make([]domain.Tag, 0, len(n.Tags))
	for _, t := range n.Tags {
		tags = append(tags, domain.Tag{Name: t.Name, Value: t.Value})
	}
	size, _ := strconv.ParseInt(n.Data.Size, 10, 64) // unparseable sizes read as zero
	if n.Block == nil {
		return domain.ReconstructPendingRef(n.ID, n.Owner.Address, tags, size)
	}
	return domain.ReconstructRef(n.ID, n.Owner.Address, tags, size, n.Block.Height, n.Block.Timestamp)
}
