// Package nut is a minimal client for the Network UPS Tools text protocol
// spoken by upsd on TCP port 3493.
//
// Only the read-only listing commands are implemented:
//
//	LIST UPS          -> BEGIN LIST UPS / UPS <name> "<desc>" / END LIST UPS
//	LIST VAR <ups>    -> BEGIN LIST VAR <ups> / VAR <ups> <name> "<value>" / END LIST VAR <ups>
//
// Variable values are returned exactly as upsd sends them (after unquoting);
// no numeric conversion happens here.
package nut
