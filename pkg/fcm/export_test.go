package fcm

// WithAPNSClock fixes the time used to compute apns-expiration.
var WithAPNSClock = withAPNSClock

var NewBatchIDs = newBatchIDs
