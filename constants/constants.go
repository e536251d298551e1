package constants

const StatusCompleted = "completed"
const StatusFailed = "failed"

// routing stages, used in rejection records and stage counters
const StageFilter string = "filter"
const StageQuote string = "quote"
const StageNormalize string = "normalize"
const StageScore string = "score"

// constraint names collected by the filter
const ConstraintMaxPrice string = "max_price"
const ConstraintPreferredRegion string = "preferred_region"
const ConstraintRequiredGpu string = "required_gpu"
const ConstraintExcludedPricingModel string = "excluded_pricing_model"
const ConstraintCapacity string = "capacity"

const REDIS_RATE_PREFIX = "price:rate:"

const DEFAULT_QUOTE_TIMEOUT_MS = 5000
const DEFAULT_TOP_N = 3
const TRACE_CANDIDATE_CAP = 5
const TRACE_REJECTION_CAP = 10

const DEFAULT_PRICE_WEIGHT = 0.60
const DEFAULT_LATENCY_WEIGHT = 0.15
const DEFAULT_REPUTATION_WEIGHT = 0.15
const DEFAULT_GEOGRAPHY_WEIGHT = 0.10
