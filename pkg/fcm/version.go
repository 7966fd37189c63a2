package fcm

// Version is reported to Firebase in the X-FIREBASE-CLIENT header.
const Version = "1.0.0"
