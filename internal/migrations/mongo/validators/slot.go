package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"start_time",
			"end_time",
			"max_trucks",
			"booked_count",
			"congestion_score",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"max_trucks": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  500,
			},

			"booked_count": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"congestion_score": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
				"maximum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
