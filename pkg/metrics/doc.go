/*
Package metrics records periodic resource samples into calendar-day buckets
and projects them back out at hourly or daily granularity.

# Day Buckets

Every calendar day (UTC) owns one DayBucket: four parallel arrays of
CellsPerDay cells, one cell per 5-minute window.

	cell = secondsSinceMidnight / CellSeconds   (0..287)

	CallCount          how many samples landed in the window
	HeapSize           heap bytes at the first sample of the window
	MemorySize         total process memory at the first sample
	AvailableResource  remaining resource budget at the first sample

CallCount == 0 is the only "never sampled" signal. A zero in the other
arrays can mean either "no sample" or "sampled as zero".

# Recording

Record looks up the cell for a nanosecond timestamp. The first sample of a
window pays for one supplier call and stores the resource values; later
samples in the same window only bump CallCount, unless the caller forces a
refresh:

	metrics.Record(store, now, false, supplier.Sample) // first writer wins
	metrics.Record(store, now, true, supplier.Sample)  // overwrite values

# Querying

Query walks days newest-first and emits only days present in the store:

	Hourly  raw arrays, at most MaxHourlyDays days
	Daily   CallCount sum + NumericSummary per resource array,
	        at most MaxDailyDays days

Wider ranges are cut at the cap rather than rejected, so a query never costs
more than a fixed number of day buckets.

None of the types here are safe for concurrent use. Callers serialise access.
*/
package metrics
