package kripke

// OrderModel builds a small tagged model of a single order.
//
// States:
//   new
//   accepted   {accepted}
//   delivered  {delivered}
//   cancelled  {cancelled}
//
// Transitions:
//   new       -iAccept->  accepted
//   accepted  -iUpdate->  accepted   (amend the order, repeatable)
//   accepted  -iDeliver-> delivered
//   accepted  -iCancel->  cancelled
//   delivered -iReorder-> new
//
// cancelled has no outgoing transitions, so a walker restarts there.
// With from={accepted}, to={delivered}, drop={cancelled} every covered path
// is iAccept iUpdate* iDeliver.
func OrderModel() *Model {
	m := NewModel("order", NewBasicState("new"))
	m.AddState(NewBasicState("accepted", "accepted"))
	m.AddState(NewBasicState("delivered", "delivered"))
	m.AddState(NewBasicState("cancelled", "cancelled"))

	for _, t := range []Transition{
		{From: "new", To: "accepted", Action: "iAccept"},
		{From: "accepted", To: "accepted", Action: "iUpdate"},
		{From: "accepted", To: "delivered", Action: "iDeliver"},
		{From: "accepted", To: "cancelled", Action: "iCancel"},
		{From: "delivered", To: "new", Action: "iReorder"},
	} {
		if err := m.AddTransition(t.From, t.To, t.Action, t.Tags...); err != nil {
			panic(err)
		}
	}
	return m
}

// OrderTagSets are the path filters that go with OrderModel.
func OrderTagSets() TagSets {
	return NewTagSets([]Tag{"accepted"}, []Tag{"delivered"}, []Tag{"cancelled"})
}
