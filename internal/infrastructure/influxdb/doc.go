// Package influxdb mirrors UPS history rows into InfluxDB v2.
//
// SQLite stays the system of record and serves every query; InfluxDB is an
// optional, write-only copy for long-term dashboards. It wraps the official
// influxdb-client-go v2 library.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteReading("ups1", 230.0, 100, "OL", time.Now())
//
// # Error Handling
//
// Writes are batched and non-blocking; failures reach the SetOnError
// callback wrapped in ErrWriteFailed. Connection errors are returned directly.
package influxdb
