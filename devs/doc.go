// Package devs is a discrete-event simulation kernel for the DEVS formalism.
//
// A Simulator advances a network of models through simulated time. Each model
// is a black-box state machine implementing Model. Outputs flow from one model
// to the next along a static one-hop coupling graph, and the outside world
// feeds the network through an exogenous input schedule.
//
// Time is super-dense: a VTime is a real coordinate plus a causal index that
// orders the events of one real time inside the queue. A cascade of
// zero-duration reactions runs as successive steps at the same real time. When a model's internal event and an arriving input
// coincide at the same instant, the EventQueue merges them into one confluent
// event and the model receives a single ConfluentTransition call.
//
// A minimal run looks like:
//
//	s := devs.NewSimulator[string]()
//	press := s.AddModel("press", machine.NewPress())
//	drill := s.AddModel("drill", machine.NewDrill())
//	s.AddCoupling(press, drill)
//	s.RouteInputTo(press)
//	s.TakeOutputFrom(drill)
//	s.AddInput("12", 1.5)
//	trace, err := s.Simulate()
package devs
