package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OpKind enumerates update operations.
type OpKind int

const (
	// OpAdd adds or replaces a document.
	OpAdd OpKind = iota
	// OpDeleteByID deletes documents by unique key.
	OpDeleteByID
	// OpDeleteByQuery deletes documents matching a query.
	OpDeleteByQuery
	// OpCommit makes preceding operations visible.
	OpCommit
)

// Op is one operation of an update request.
type Op struct {
	Kind  OpKind
	Doc   Doc
	IDs   []string
	Query string
}

// Update is an ordered list of update operations sent in one request.
type Update struct {
	ops  []Op
	docs int
}

// NewUpdate creates an empty update.
func NewUpdate() *Update {
	return &Update{}
}

// AddDocument queues a document add.
func (u *Update) AddDocument(d Doc) *Update {
	u.ops = append(u.ops, Op{Kind: OpAdd, Doc: d})
	u.docs++
	return u
}

// AddDeleteByID queues a delete by unique key.
func (u *Update) AddDeleteByID(id string) *Update {
	u.ops = append(u.ops, Op{Kind: OpDeleteByID, IDs: []string{id}})
	return u
}

// AddDeleteByIDs queues a delete of several unique keys.
func (u *Update) AddDeleteByIDs(ids []string) *Update {
	if len(ids) == 0 {
		return u
	}
	u.ops = append(u.ops, Op{Kind: OpDeleteByID, IDs: append([]string(nil), ids...)})
	return u
}

// AddDeleteQuery queues a delete by query.
func (u *Update) AddDeleteQuery(q string) *Update {
	u.ops = append(u.ops, Op{Kind: OpDeleteByQuery, Query: q})
	return u
}

// AddCommit queues a commit.
func (u *Update) AddCommit() *Update {
	u.ops = append(u.ops, Op{Kind: OpCommit})
	return u
}

// Ops returns the queued operations in order.
func (u *Update) Ops() []Op { return u.ops }

// Len returns the number of queued operations.
func (u *Update) Len() int { return len(u.ops) }

// DocumentCount returns the number of queued document adds.
func (u *Update) DocumentCount() int { return u.docs }

// HasCommit reports whether the update ends with a commit.
func (u *Update) HasCommit() bool {
	return len(u.ops) > 0 && u.ops[len(u.ops)-1].Kind == OpCommit
}

// MarshalJSON encodes the update as a JSON update command object. Command names repeat
// as object keys, which the engine's JSON update handler accepts in order.
func (u *Update) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, op := range u.ops {
		if i > 0 {
			buf.WriteByte(',')
		}
		switch op.Kind {
		case OpAdd:
			doc, err := op.Doc.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.WriteString(`"add":{"doc":`)
			buf.Write(doc)
			buf.WriteByte('}')
		case OpDeleteByID:
			var (
				ids []byte
				err error
			)
			if len(op.IDs) == 1 {
				ids, err = json.Marshal(map[string]string{"id": op.IDs[0]})
			} else {
				ids, err = json.Marshal(op.IDs)
			}
			if err != nil {
				return nil, fmt.Errorf("marshal delete ids: %w", err)
			}
			buf.WriteString(`"delete":`)
			buf.Write(ids)
		case OpDeleteByQuery:
			q, err := json.Marshal(map[string]string{"query": op.Query})
			if err != nil {
				return nil, fmt.Errorf("marshal delete query: %w", err)
			}
			buf.WriteString(`"delete":`)
			buf.Write(q)
		case OpCommit:
			buf.WriteString(`"commit":{}`)
		default:
			return nil, fmt.Errorf("unknown update op %d", op.Kind)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
