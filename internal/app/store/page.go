package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageFind builds the Mongo filter and options for q on top of the
// tenant-scoped base filter: extra conditions, the _id cursor, ascending
// _id sort and the limit.
func PageFind(base bson.D, q Query) (bson.D, *options.FindOptions) {
	f := append(bson.D{}, base...)
	f = append(f, q.Filter.BSON()...)
	if !q.After.IsZero() {
		f = append(f, bson.E{Key: "_id", Value: bson.D{{Key: "$gt", Value: q.After}}})
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return f, opts
}
