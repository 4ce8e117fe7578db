// Command mosaic is the Mosaic CLI and server entry point.
//
//	mosaic serve            # start the API server
//	mosaic migrate          # run pending migrations
//	mosaic migrate:rollback # rollback the last batch
//	mosaic migrate:status   # show migration status
//	mosaic seed --tenant t  # bootstrap a tenant's catalog
//	mosaic jobs:work        # drain the job queue (redis driver)
//	mosaic schedule:run     # run scheduled maintenance tasks
//	mosaic route:list       # print the route table
package main
