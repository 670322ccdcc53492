package statsview

import "errors"

// DefaultAddress is used when no address is configured
const DefaultAddress = "localhost:12600"

const chartPath = "/debug/statsview"

// ErrUnavailable is returned by Start when the charts were not compiled in
var ErrUnavailable = errors.New("statsview not built in (rebuild with -tags statsview)")
