package airsink

const (
	serverHeader = "AirTunes/220.68"

	// methods advertised in OPTIONS responses.
	serverPublicMethods = "ANNOUNCE, SETUP, RECORD, PAUSE, FLUSH, TEARDOWN, OPTIONS, GET_PARAMETER, SET_PARAMETER"

	contentTypeOctetStream = "application/octet-stream"
	contentTypeParameters  = "text/parameters"
	contentTypeSDP         = "application/sdp"
)
