package graphql

// profileQuery fetches the signed-in user. The backend scopes "user" to
// the bearer token, so no variables are needed.
const profileQuery = `query Profile {
  user {
    id
    login
    attrs
    auditRatio
  }
}`

// dashboardQuery fetches every record the dashboard needs in one round
// trip. XP, level and progress are scoped to $eventId; skills come from the
// distinct transaction types that are none of xp, level, up or down.
const dashboardQuery = `query Dashboard($eventId: Int!) {
  user {
    id
    login
    attrs
    auditRatio
    events(where: {eventId: {_eq: $eventId}}) {
      level
    }
  }
  xp: transaction(
    where: {type: {_eq: "xp"}, eventId: {_eq: $eventId}}
    order_by: {createdAt: asc}
  ) {
    id
    type
    amount
    createdAt
    path
    userId
  }
  up: transaction(where: {type: {_eq: "up"}}, order_by: {createdAt: asc}) {
    id
    type
    amount
    createdAt
    path
    userId
  }
  down: transaction(where: {type: {_eq: "down"}}, order_by: {createdAt: asc}) {
    id
    type
    amount
    createdAt
    path
    userId
  }
  progress(
    where: {eventId: {_eq: $eventId}, object: {type: {_eq: "project"}}}
    order_by: {createdAt: desc}
  ) {
    grade
    createdAt
    isDone
    path
    object {
      id
      name
      type
    }
  }
  skills: transaction(
    where: {type: {_nin: ["xp", "level", "up", "down"]}}
    order_by: [{type: asc}, {amount: desc}]
    distinct_on: type
  ) {
    type
    amount
  }
}`
