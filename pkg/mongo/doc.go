// Package mongo connects to MongoDB, which can hold the delivery log when
// Postgres is not wanted for audit data.
//
//	client, err := mongo.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	db := client.Database(cfg.Database)
package mongo
