package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DateCount is one bucket of a per-day series.
type DateCount struct {
	Date  string `bson:"_id" json:"date"`
	Count int    `bson:"count" json:"count"`
}

// Overview summarizes the user base.
type Overview struct {
	TotalUsers          int         `json:"totalUsers"`
	VerifiedUsers       int         `json:"verifiedUsers"`
	RegistrationsByDate []DateCount `json:"registrationsByDate"`
}

// Activity summarizes recent logins.
type Activity struct {
	ActiveLastWeek   int         `json:"activeLastWeek"`
	LastLoginsByDate []DateCount `json:"lastLoginsByDate"`
}

// Security summarizes account-security state: how many accounts currently
// carry an outstanding reset or verification token, and when the pending
// reset tokens expire.
type Security struct {
	PendingResets        int         `json:"pendingResets"`
	PendingVerifications int         `json:"pendingVerifications"`
	ResetsByExpiry       []DateCount `json:"resetsByExpiry"`
}

// StatsService runs aggregations over the users collection for the admin
// dashboards. Kept separate from Repository so fakes in tests stay small.
type StatsService struct {
	col *mongo.Collection
}

func NewStatsService(col *mongo.Collection) *StatsService {
	return &StatsService{col: col}
}

func dateSeries(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{field: bson.M{"$type": "date"}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$" + field}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: 7}},
	}
}

func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	total, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	verified, err := s.col.CountDocuments(ctx, bson.M{"isVerified": true})
	if err != nil {
		return nil, err
	}
	cur, err := s.col.Aggregate(ctx, dateSeries("createdAt"))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var series []DateCount
	if err := cur.All(ctx, &series); err != nil {
		return nil, err
	}
	return &Overview{
		TotalUsers:          int(total),
		VerifiedUsers:       int(verified),
		RegistrationsByDate: series,
	}, nil
}

func (s *StatsService) Activity(ctx context.Context) (*Activity, error) {
	weekAgo := time.Now().UTC().Add(-7 * 24 * time.Hour)
	active, err := s.col.CountDocuments(ctx, bson.M{"lastLogin": bson.M{"$gte": weekAgo}})
	if err != nil {
		return nil, err
	}
	cur, err := s.col.Aggregate(ctx, dateSeries("lastLogin"))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var series []DateCount
	if err := cur.All(ctx, &series); err != nil {
		return nil, err
	}
	return &Activity{
		ActiveLastWeek:   int(active),
		LastLoginsByDate: series,
	}, nil
}

func (s *StatsService) Security(ctx context.Context) (*Security, error) {
	resets, err := s.col.CountDocuments(ctx, bson.M{"resetToken": bson.M{"$exists": true}})
	if err != nil {
		return nil, err
	}
	verifications, err := s.col.CountDocuments(ctx, bson.M{"verificationToken": bson.M{"$exists": true}})
	if err != nil {
		return nil, err
	}
	cur, err := s.col.Aggregate(ctx, dateSeries("resetTokenExpiry"))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var series []DateCount
	if err := cur.All(ctx, &series); err != nil {
		return nil, err
	}
	return &Security{
		PendingResets:        int(resets),
		PendingVerifications: int(verifications),
		ResetsByExpiry:       series,
	}, nil
}
