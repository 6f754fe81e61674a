/*
Package client ships application log lines to a tinyrec server and reads
them back.

# Quick Start

	c, err := client.New(client.Config{
	    Service:  "my-app",
	    Endpoint: "http://localhost:8080",
	})
	if err != nil {
	    log.Fatal(err)
	}

	c.Start(context.Background())
	defer c.Stop(context.Background())

	c.Logf("listening on %s", addr)

Lines are buffered and posted to /v1/logs/batch every FlushEvery, or as soon
as MaxBatchSize lines are waiting. Shipping failures are reported to
Config.OnError and the failed batch is dropped; the server keeps a bounded
ring anyway, so retrying old lines buys little.

# Access Logs

httpx.Middleware logs one line per request:

	handler := httpx.Middleware(c)(mux)

# Reading Back

QueryLogs pages through the ring. Pass LastAnalyzedTime from one page as the
Cursor of the next:

	res, _ := c.QueryLogs(ctx, logquery.Request{Direction: logquery.Reverse, Count: 50})
	for res.LastAnalyzedTime != nil && len(res.Messages) > 0 {
	    res, _ = c.QueryLogs(ctx, logquery.Request{
	        Direction: logquery.Reverse,
	        Cursor:    res.LastAnalyzedTime,
	        Count:     50,
	    })
	}

Metrics, Information and Collect expose the resource usage side.
*/
package client
