package telemetry

// Span names used for instrumentation.
const (
	SpanAnalyze       = "flow.analyze"
	SpanAnalyzeBatch  = "flow.analyze_batch"
	SpanGateSquare    = "flow.gate_square"
	SpanRegionFilter  = "flow.region_filter"
	SpanClassify      = "flow.classify_course"
	SpanCount         = "flow.count"
	SpanLoadBatch     = "flow.load_batch"
	SpanPublishResult = "flow.publish"
)

// Span attribute keys.
const (
	AttrBatch             = "gateflow.batch"
	AttrRawRows           = "gateflow.rows.raw"
	AttrInRegionRows      = "gateflow.rows.in_region"
	AttrHeaderRowsDropped = "gateflow.rows.header_dropped"
	AttrVesselCount       = "gateflow.vessels.count"
	AttrCacheHit          = "gateflow.cache.hit"
)
