package server

// Version is the gateway release reported by the health endpoint and the
// protocol handshake.
const Version = "0.4.1"
