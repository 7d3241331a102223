// Package client implements the kvsd protocol client.
//
// An RPCClient dials one endpoint through a transport.IClientConnector and
// exchanges messages over a single connection.Connection. Requests and
// replies are strictly sequential; the client does not retry or reconnect.
//
// Usage Example:
//
//	conf := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Name:     "tcp",
//			Endpoint: "localhost:7450",
//		},
//	}
//
//	c, err := client.NewRPCClient(conf, tcp.NewClientConnector())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	reply, rtt, err := c.Ping()
//	fmt.Println(reply.ServerTimestamp, rtt)
//
// An RPCClient is not safe for concurrent use.
package client
