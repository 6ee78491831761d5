// Package consumer implements the server side of the notifications WebSocket.
//
// Each socket is served by one Session whose lifecycle runs on a
// statemachine.Machine:
//
//	connecting --authenticate--> authenticated --close--> closed
//	connecting --close--> closed
//
// Authentication happens before the upgrade: Handler verifies the request
// with an identity.Verifier and answers 401 without upgrading when it fails.
// Once authenticated, the session queues a connection_established frame,
// joins the user's address and, when the identity has one, the role's
// address. From then on it relays broadcasts filtered by the client's
// subscription and answers ping and subscribe frames:
//
//	-> {"type":"ping","timestamp":"1700000000"}
//	<- {"type":"pong","timestamp":"1700000000"}
//	-> {"type":"subscribe","notification_types":["job_posted"]}
//	<- {"type":"subscription_confirmed","notification_types":["job_posted"]}
//
// Closing the session, for any reason, leaves every joined address before it
// returns. Protocol-level ping frames keep idle connections alive and are
// independent of the JSON ping above.
//
// Mount the handler on the router:
//
//	h := consumer.NewHandler(verifier, layer, consumer.WithConfig(cfg))
//	r.Handle("/ws/notifications", h)
package consumer
