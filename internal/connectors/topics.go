package connectors

const (
	TopicConnStatus = "conn.status"
	TopicDashboard  = "dashboard"
	TopicVideoFrame = "video.frame"
	TopicTelemetry  = "telemetry.sample"
	TopicFrameRate  = "frame.rate"
)
