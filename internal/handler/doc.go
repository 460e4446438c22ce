/*
Package handler implements the poll's HTTP API on gin.

# Mutations and events

Every mutating handler commits to the store first and then calls the event
router. A failure while notifying subscribers is logged and never changes the
response.

# Client identity

In "ip" mode the voter is identified by gin's ClientIP and any client_id in
the body is ignored. In "client" mode the body's client_id is used and must
not be empty.

# Errors

Validation failures answer 400, missing candidates 404 and store failures
500, all with a JSON body:

	{"error": "bad_request", "message": "..."}

A double vote or a vote for an unknown candidate is not an error; it answers
200 with {"success": false, "message": "..."}.
*/
package handler
