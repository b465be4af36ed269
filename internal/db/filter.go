package db

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterBuilder helps build MongoDB filters fluently
type FilterBuilder struct {
	filter bson.M
}

// NewFilter creates a new FilterBuilder
func NewFilter() *FilterBuilder {
	return &FilterBuilder{filter: bson.M{}}
}

// op merges an operator condition into the field. Stacking several
// operators on one field ($all + $size) keeps them all.
func (f *FilterBuilder) op(field, operator string, value interface{}) *FilterBuilder {
	if existing, ok := f.filter[field].(bson.M); ok {
		existing[operator] = value
		return f
	}
	f.filter[field] = bson.M{operator: value}
	return f
}

// Eq adds an equality condition
func (f *FilterBuilder) Eq(field string, value interface{}) *FilterBuilder {
	f.filter[field] = value
	return f
}

// Ne adds a not-equal condition
func (f *FilterBuilder) Ne(field string, value interface{}) *FilterBuilder {
	return f.op(field, "$ne", value)
}

// In adds an $in condition (value in array)
func (f *FilterBuilder) In(field string, values interface{}) *FilterBuilder {
	return f.op(field, "$in", values)
}

// NotIn adds a $nin condition (value not in array)
func (f *FilterBuilder) NotIn(field string, values interface{}) *FilterBuilder {
	return f.op(field, "$nin", values)
}

// All requires an array field to contain every listed value. Used to find
// the direct conversation shared by an exact participant pair.
func (f *FilterBuilder) All(field string, values interface{}) *FilterBuilder {
	return f.op(field, "$all", values)
}

// Size constrains array length
func (f *FilterBuilder) Size(field string, n int) *FilterBuilder {
	return f.op(field, "$size", n)
}

// ElemMatch matches array elements against a sub-filter
func (f *FilterBuilder) ElemMatch(field string, match bson.M) *FilterBuilder {
	return f.op(field, "$elemMatch", match)
}

// Exists checks if field exists
func (f *FilterBuilder) Exists(field string, exists bool) *FilterBuilder {
	return f.op(field, "$exists", exists)
}

// ObjectID adds an ObjectID filter
func (f *FilterBuilder) ObjectID(field string, id string) *FilterBuilder {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err == nil {
		f.filter[field] = objectID
	}
	return f
}

// Or combines multiple filters with OR
func (f *FilterBuilder) Or(filters ...bson.M) *FilterBuilder {
	if len(filters) > 0 {
		f.filter["$or"] = filters
	}
	return f
}

// Build returns the final bson.M filter
func (f *FilterBuilder) Build() bson.M {
	return f.filter
}

// Empty returns an empty filter (matches all documents)
func Empty() bson.M {
	return bson.M{}
}
